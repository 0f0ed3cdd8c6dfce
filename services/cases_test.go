package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

func TestCreateCase(t *testing.T) {
	f := newFixture(t)
	in := caseInput("FIR/2025/001")
	in.Properties = []services.PropertyInput{propertyInput()}

	c, err := f.caseSvc.CreateCase(context.Background(), f.officer, in)
	require.NoError(t, err)
	assert.False(t, c.ID.IsZero())
	assert.Equal(t, models.CaseStatusPending, c.Status)
	assert.Equal(t, f.officer.ID, c.CreatedBy)
	assert.Empty(t, c.CustodyLogs)
	assert.Nil(t, c.Disposal)
	require.Len(t, c.Properties, 1)
	assert.Equal(t, models.BelongingTo("ACCUSED"), c.Properties[0].BelongingTo)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), c.DateOfFIR)
	assert.Equal(t, fixedNow, c.CreatedAt)
	assert.Equal(t, []string{services.EventCaseCreated}, f.events.names())
}

func TestCreateCaseRequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.caseSvc.CreateCase(context.Background(), nil, caseInput("FIR/2025/001"))
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestCreateCaseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*services.CaseInput)
		message string
	}{
		{"seizure before FIR", func(in *services.CaseInput) { in.DateOfSeizure = "2025-01-09" }, "Date of Seizure cannot be before Date of FIR"},
		{"missing crime number", func(in *services.CaseInput) { in.CrimeNumber = " " }, "crimeNumber is required"},
		{"bad date", func(in *services.CaseInput) { in.DateOfFIR = "10/01/2025" }, "dateOfFIR must be a valid date"},
		{"missing date", func(in *services.CaseInput) { in.DateOfSeizure = "" }, "dateOfSeizure is required"},
		{"ancient year", func(in *services.CaseInput) { in.CrimeYear = 1850 }, "crimeYear must be 1900 or later"},
		{"future year", func(in *services.CaseInput) { in.CrimeYear = 2026 }, "crimeYear must be 2025 or earlier"},
		{"bad property", func(in *services.CaseInput) {
			p := propertyInput()
			p.BelongingTo = "NEIGHBOUR"
			in.Properties = []services.PropertyInput{p}
		}, "belongingTo must be one of: ACCUSED, COMPLAINANT, UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := caseInput("FIR/2025/001")
			tt.mutate(&in)
			_, err := f.caseSvc.CreateCase(ctx, f.officer, in)
			requireKind(t, err, models.KindValidation)
			assert.Equal(t, tt.message, messageOf(err))
		})
	}
}

func TestCreateCaseSameDayIsAllowed(t *testing.T) {
	f := newFixture(t)
	in := caseInput("FIR/2025/001")
	in.DateOfSeizure = in.DateOfFIR

	_, err := f.caseSvc.CreateCase(context.Background(), f.officer, in)
	assert.NoError(t, err)
}

func TestCreateCaseDuplicateCrimeNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)
	_, err = f.caseSvc.CreateCase(ctx, f.admin, caseInput("FIR/2025/001"))
	requireKind(t, err, models.KindConflict)
	assert.Equal(t, "Crime number already exists", messageOf(err))
}

func TestGetCasePopulatesCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)

	c, err := f.caseSvc.GetCase(ctx, f.admin, created.ID)
	require.NoError(t, err)
	require.NotNil(t, c.Creator)
	assert.Equal(t, "Officer ravi", c.Creator.FullName)
	assert.Equal(t, "OF-1", c.Creator.BadgeID)

	_, err = f.caseSvc.GetCase(ctx, f.admin, primitive.NewObjectID())
	requireKind(t, err, models.KindNotFound)
	assert.Equal(t, "Case not found", messageOf(err))
}

func TestListCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, number := range []string{"FIR/2025/001", "FIR/2025/002", "CR.(7)/2025"} {
		at := fixedNow.Add(time.Duration(i) * time.Hour)
		f.caseSvc.Now = func() time.Time { return at }
		in := caseInput(number)
		if i == 2 {
			in.InvestigatingOfficerName = "Inspector Iyer"
			in.PoliceStationName = "Harbour"
		}
		_, err := f.caseSvc.CreateCase(ctx, f.officer, in)
		require.NoError(t, err)
	}

	all, err := f.caseSvc.ListCases(ctx, f.officer, models.CaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "CR.(7)/2025", all[0].CrimeNumber)
	assert.Equal(t, "FIR/2025/001", all[2].CrimeNumber)
	require.NotNil(t, all[0].Creator)

	found, err := f.caseSvc.ListCases(ctx, f.officer, models.CaseFilter{Search: "harb"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = f.caseSvc.ListCases(ctx, f.officer, models.CaseFilter{Search: "(7)"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = f.caseSvc.ListCases(ctx, f.officer, models.CaseFilter{Status: "disposed"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = f.caseSvc.ListCases(ctx, f.officer, models.CaseFilter{Status: "ARCHIVED"})
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestUpdateCaseMergesDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := caseInput("FIR/2025/001")
	in.Properties = []services.PropertyInput{propertyInput()}
	created, err := f.caseSvc.CreateCase(ctx, f.officer, in)
	require.NoError(t, err)

	updated, err := f.caseSvc.UpdateCase(ctx, f.officer, created.ID, services.UpdateCaseInput{
		SectionOfLaw: strPtr("380"),
	})
	require.NoError(t, err)
	assert.Equal(t, "380", updated.SectionOfLaw)
	assert.Equal(t, "IPC", updated.ActAndLaw)
	assert.Equal(t, models.CaseStatusPending, updated.Status)
	assert.Len(t, updated.Properties, 1)
	assert.Equal(t, f.officer.ID, updated.CreatedBy)

	_, err = f.caseSvc.UpdateCase(ctx, f.officer, created.ID, services.UpdateCaseInput{
		DateOfSeizure: strPtr("2025-01-01"),
	})
	requireKind(t, err, models.KindValidation)
	assert.Equal(t, "Date of Seizure cannot be before Date of FIR", messageOf(err))
}

func TestUpdateCaseCrimeNumberConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)
	_, err = f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/002"))
	require.NoError(t, err)

	_, err = f.caseSvc.UpdateCase(ctx, f.officer, first.ID, services.UpdateCaseInput{CrimeNumber: strPtr("FIR/2025/002")})
	requireKind(t, err, models.KindConflict)

	_, err = f.caseSvc.UpdateCase(ctx, f.officer, first.ID, services.UpdateCaseInput{CrimeNumber: strPtr("FIR/2025/001")})
	assert.NoError(t, err)
}

func TestDeleteCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)

	err = f.caseSvc.DeleteCase(ctx, f.officer, c.ID)
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Only admins can delete cases", messageOf(err))

	require.NoError(t, f.caseSvc.DeleteCase(ctx, f.admin, c.ID))
	err = f.caseSvc.DeleteCase(ctx, f.admin, c.ID)
	requireKind(t, err, models.KindNotFound)
}

func TestCaseStoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.cases.Err = errors.New("socket closed")

	_, err := f.caseSvc.GetCase(context.Background(), f.officer, primitive.NewObjectID())
	requireKind(t, err, models.KindInternal)
	assert.Equal(t, models.InternalErrorMessage, messageOf(err))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/001"))
	require.NoError(t, err)
	_, err = f.caseSvc.CreateCase(ctx, f.officer, caseInput("FIR/2025/002"))
	require.NoError(t, err)
	_, err = f.caseSvc.Dispose(ctx, f.admin, first.ID, disposalInput("DESTROYED"))
	require.NoError(t, err)

	stats, err := f.caseSvc.Stats(ctx, f.officer)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStats{TotalCases: 2, DisposedCases: 1, PendingCases: 1}, *stats)
}
