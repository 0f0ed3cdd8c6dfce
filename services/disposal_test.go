package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

func TestDispose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)

	_, err = f.caseSvc.Dispose(ctx, f.officer, c.ID, disposalInput("RETURNED"))
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Only admins can dispose cases", messageOf(err))

	bad := disposalInput("SOLD")
	_, err = f.caseSvc.Dispose(ctx, f.admin, c.ID, bad)
	requireKind(t, err, models.KindValidation)
	assert.Equal(t, "disposalType must be one of: RETURNED, DESTROYED, AUCTIONED, COURT_CUSTODY", messageOf(err))

	disposed, err := f.caseSvc.Dispose(ctx, f.admin, c.ID, disposalInput("returned"))
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusDisposed, disposed.Status)
	require.NotNil(t, disposed.Disposal)
	assert.Equal(t, models.DisposalReturned, disposed.Disposal.DisposalType)
	assert.Equal(t, f.admin.ID, disposed.Disposal.DisposedBy)

	_, err = f.caseSvc.Dispose(ctx, f.superAdmin, c.ID, disposalInput("DESTROYED"))
	assert.ErrorIs(t, err, models.ErrAlreadyDisposed)
}

func TestDisposeRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)

	var wins, losses int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.caseSvc.Dispose(ctx, f.admin, c.ID, disposalInput("AUCTIONED"))
			if err == nil {
				atomic.AddInt32(&wins, 1)
				return
			}
			assert.ErrorIs(t, err, models.ErrAlreadyDisposed)
			atomic.AddInt32(&losses, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(9), losses)
}

func TestAmendDisposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)

	_, err = f.caseSvc.AmendDisposal(ctx, f.admin, c.ID, services.AmendDisposalInput{Remarks: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotDisposedYet)

	in := disposalInput("COURT_CUSTODY")
	in.Remarks = "Held as exhibit"
	_, err = f.caseSvc.Dispose(ctx, f.admin, c.ID, in)
	require.NoError(t, err)

	_, err = f.caseSvc.AmendDisposal(ctx, f.officer, c.ID, services.AmendDisposalInput{})
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Only admins can update disposal", messageOf(err))

	amended, err := f.caseSvc.AmendDisposal(ctx, f.superAdmin, c.ID, services.AmendDisposalInput{
		CourtOrderReference: strPtr("CO/2025/43"),
	})
	require.NoError(t, err)
	d := amended.Disposal
	assert.Equal(t, "CO/2025/43", d.CourtOrderReference)
	assert.Equal(t, models.DisposalCourtCustody, d.DisposalType)
	assert.Equal(t, "Held as exhibit", d.Remarks)
	assert.Equal(t, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC), d.DateOfDisposal)
	assert.Equal(t, f.admin.ID, d.DisposedBy)
	assert.Equal(t, models.CaseStatusDisposed, amended.Status)

	_, err = f.caseSvc.AmendDisposal(ctx, f.admin, c.ID, services.AmendDisposalInput{DisposalType: strPtr("LOST")})
	requireKind(t, err, models.KindValidation)
}

func TestAmendDisposalKeepsEscapedRemarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)

	in := disposalInput("RETURNED")
	in.Remarks = "Returned to <b>owner</b> & family"
	_, err = f.caseSvc.Dispose(ctx, f.admin, c.ID, in)
	require.NoError(t, err)

	var amended *models.Case
	for i := 0; i < 2; i++ {
		amended, err = f.caseSvc.AmendDisposal(ctx, f.admin, c.ID, services.AmendDisposalInput{
			CourtOrderReference: strPtr("CO/2025/43"),
		})
		require.NoError(t, err)
	}
	assert.Equal(t, "Returned to owner &amp; family", amended.Disposal.Remarks)

	amended, err = f.caseSvc.AmendDisposal(ctx, f.admin, c.ID, services.AmendDisposalInput{
		Remarks: strPtr("&lt;b&gt;kept&lt;/b&gt;"),
	})
	require.NoError(t, err)
	assert.NotContains(t, amended.Disposal.Remarks, "<")
}
