package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/models"
)

func testCaller() models.Caller {
	return models.Caller{
		ID:                primitive.NewObjectID(),
		Username:          "rsharma",
		FullName:          "R Sharma",
		Role:              models.RoleOfficer,
		PoliceStationName: "Kotwali",
		BadgeID:           "B-101",
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", false)
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	m, err := NewManager("s3cret", false)
	require.NoError(t, err)
	caller := testCaller()

	token, exp, err := m.Issue(caller)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(Lifetime), exp, 5*time.Second)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, caller.ID.Hex(), claims.ID)
	assert.Equal(t, caller.ID.Hex(), claims.Subject)
	assert.Equal(t, models.RoleOfficer, claims.Role)
	assert.Equal(t, "Kotwali", claims.PoliceStationName)

	got, err := claims.Caller()
	require.NoError(t, err)
	assert.Equal(t, caller, *got)
}

func TestValidateExpired(t *testing.T) {
	m, err := NewManager("s3cret", false)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := m.Issue(testCaller())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongSecret(t *testing.T) {
	issuer, _ := NewManager("one", false)
	verifier, _ := NewManager("two", false)

	token, _, err := issuer.Issue(testCaller())
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	m, _ := NewManager("s3cret", false)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateGarbage(t *testing.T) {
	m, _ := NewManager("s3cret", false)
	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSetCookie(t *testing.T) {
	m, _ := NewManager("s3cret", true)
	rr := httptest.NewRecorder()
	m.SetCookie(rr, "abc")

	res := rr.Result()
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, 1800, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestClearCookie(t *testing.T) {
	m, _ := NewManager("s3cret", false)
	rr := httptest.NewRecorder()
	m.ClearCookie(rr)

	c := rr.Result().Cookies()[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "", c.Value)
	assert.True(t, c.MaxAge < 0)
}
