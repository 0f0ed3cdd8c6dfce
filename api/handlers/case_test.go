package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/malkhana-api/models"
)

func createCase(t *testing.T, ta *testApp, token, crimeNumber string) models.Case {
	t.Helper()
	body := caseBody(crimeNumber)
	body["properties"] = []map[string]string{propertyBody()}
	rr := ta.call("POST", "/api/v1/cases", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var c models.Case
	decodeData(t, rr, &c)
	return c
}

func TestCaseLifecycle(t *testing.T) {
	ta := newTestApp(t)

	created := createCase(t, ta, ta.officer, "CR-101")
	assert.Equal(t, models.CaseStatusPending, created.Status)
	require.Len(t, created.Properties, 1)
	assert.Empty(t, created.CustodyLogs)
	caseURL := "/api/v1/cases/" + created.ID.Hex()

	rr := ta.call("GET", caseURL, ta.officer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var fetched models.Case
	decodeData(t, rr, &fetched)
	require.NotNil(t, fetched.Creator)
	assert.Equal(t, "OF-1", fetched.Creator.BadgeID)

	rr = ta.call("POST", caseURL+"/properties", ta.officer, propertyBody())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var withTwo models.Case
	decodeData(t, rr, &withTwo)
	require.Len(t, withTwo.Properties, 2)
	second := withTwo.Properties[1]

	rr = ta.call("PUT", caseURL+"/properties/"+second.ID.Hex(), ta.officer, map[string]string{"location": "Locker 9"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ta.call("DELETE", caseURL+"/properties/"+second.ID.Hex(), ta.officer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ta.call("DELETE", caseURL+"/properties/"+second.ID.Hex(), ta.officer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ta.call("GET", "/api/v1/properties/qrcode/"+created.Properties[0].ID.Hex(), ta.officer, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var code models.PropertyQRCode
	decodeData(t, rr, &code)
	assert.True(t, strings.HasPrefix(code.QRCode, "data:image/png;base64,"))
	assert.Equal(t, "CR-101", code.CrimeNumber)

	custody := map[string]string{
		"fromLocation": "Rack A-3",
		"fromOfficer":  "HC Mohan",
		"toLocation":   "FSL Lab",
		"toOfficer":    "Dr. Iyer",
		"purpose":      "Forensic examination",
		"dateTime":     "2025-02-01T10:30:00Z",
	}
	rr = ta.call("POST", caseURL+"/custody", ta.officer, custody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ta.call("GET", caseURL+"/custody", ta.officer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var logs []models.CustodyLog
	decodeData(t, rr, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "FSL Lab", logs[0].ToLocation)

	disposal := map[string]string{
		"disposalType":        "RETURNED",
		"courtOrderReference": "CO/2025/42",
		"dateOfDisposal":      "2025-05-20",
	}
	rr = ta.call("POST", caseURL+"/disposal", ta.officer, disposal)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ta.call("PUT", caseURL+"/disposal", ta.admin, map[string]string{"remarks": "early"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Case is not disposed yet", decodeEnvelope(t, rr).Message)

	rr = ta.call("POST", caseURL+"/disposal", ta.admin, disposal)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var disposed models.Case
	decodeData(t, rr, &disposed)
	assert.Equal(t, models.CaseStatusDisposed, disposed.Status)
	require.NotNil(t, disposed.Disposal)
	assert.Equal(t, models.DisposalReturned, disposed.Disposal.DisposalType)

	rr = ta.call("POST", caseURL+"/disposal", ta.admin, disposal)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Case is already disposed", decodeEnvelope(t, rr).Message)

	rr = ta.call("PUT", caseURL+"/disposal", ta.admin, map[string]string{"disposalType": "destroyed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var amended models.Case
	decodeData(t, rr, &amended)
	assert.Equal(t, models.DisposalDestroyed, amended.Disposal.DisposalType)
	assert.Equal(t, "CO/2025/42", amended.Disposal.CourtOrderReference)

	rr = ta.call("GET", "/api/v1/dashboard/stats", ta.officer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats models.CaseStats
	decodeData(t, rr, &stats)
	assert.Equal(t, models.CaseStats{TotalCases: 1, DisposedCases: 1, PendingCases: 0}, stats)

	rr = ta.call("DELETE", caseURL, ta.officer, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = ta.call("DELETE", caseURL, ta.admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ta.call("GET", caseURL, ta.officer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCasesHandlerFilters(t *testing.T) {
	ta := newTestApp(t)
	createCase(t, ta, ta.officer, "CR-1")
	second := createCase(t, ta, ta.officer, "CR-2")

	rr := ta.call("POST", "/api/v1/cases/"+second.ID.Hex()+"/disposal", ta.admin, map[string]string{
		"disposalType":        "AUCTIONED",
		"courtOrderReference": "CO/2025/7",
		"dateOfDisposal":      "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	tests := []struct {
		query string
		count int
	}{
		{"", 2},
		{"?status=pending", 1},
		{"?status=DISPOSED", 1},
		{"?status=bogus", 2},
		{"?search=cr-2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := ta.call("GET", "/api/v1/cases"+tt.query, ta.officer, nil)
			require.Equal(t, http.StatusOK, rr.Code)
			var cases []models.Case
			decodeData(t, rr, &cases)
			assert.Len(t, cases, tt.count)
		})
	}
}

func TestCaseHandlerErrors(t *testing.T) {
	ta := newTestApp(t)
	createCase(t, ta, ta.officer, "CR-9")

	t.Run("unauthenticated", func(t *testing.T) {
		rr := ta.call("GET", "/api/v1/cases", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := ta.call("GET", "/api/v1/cases/1234", ta.officer, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Case not found", decodeEnvelope(t, rr).Message)
	})

	t.Run("duplicate crime number", func(t *testing.T) {
		rr := ta.call("POST", "/api/v1/cases", ta.officer, caseBody("CR-9"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("seizure before FIR", func(t *testing.T) {
		body := caseBody("CR-10")
		body["dateOfSeizure"] = "2025-01-01"
		rr := ta.call("POST", "/api/v1/cases", ta.officer, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := ta.call("POST", "/api/v1/cases", ta.officer, map[string]string{"crimeNumber": "CR-11"})
		env := decodeEnvelope(t, rr)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, env.Success)
	})

	t.Run("unknown property qr code", func(t *testing.T) {
		rr := ta.call("GET", "/api/v1/properties/qrcode/64b64c1f2f8fb814c89d1b2a", ta.officer, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
