// Package session issues and validates the signed tokens that carry a
// logged-in user's identity between requests.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/models"
)

// Lifetime is how long an issued token stays valid
const Lifetime = 30 * time.Minute

// CookieName is the HTTP-only cookie the token travels in
const CookieName = "malkhana_session"

// HeaderName carries the refreshed token back to non-browser clients
const HeaderName = "X-Session-Token"

// ErrInvalidToken is returned for malformed, expired or tampered tokens
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the payload of a session token
type Claims struct {
	ID                string      `json:"id"`
	Username          string      `json:"username"`
	FullName          string      `json:"fullName"`
	Role              models.Role `json:"role"`
	PoliceStationName string      `json:"policeStationName"`
	BadgeID           string      `json:"badgeId"`
	jwt.RegisteredClaims
}

// Caller converts the claims into the caller identity used by services
func (c Claims) Caller() (*models.Caller, error) {
	id, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return &models.Caller{
		ID:                id,
		Username:          c.Username,
		FullName:          c.FullName,
		Role:              c.Role,
		PoliceStationName: c.PoliceStationName,
		BadgeID:           c.BadgeID,
	}, nil
}

// Manager signs and verifies HS256 session tokens
type Manager struct {
	secret       []byte
	secureCookie bool
	now          func() time.Time
}

// NewManager returns a Manager. secureCookie controls the Secure flag on
// the session cookie.
func NewManager(secret string, secureCookie bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret must be set")
	}
	return &Manager{secret: []byte(secret), secureCookie: secureCookie, now: time.Now}, nil
}

// Issue signs a token for the caller and returns it with its expiry
func (m *Manager) Issue(c models.Caller) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(Lifetime)
	claims := Claims{
		ID:                c.ID.Hex(),
		Username:          c.Username,
		FullName:          c.FullName,
		Role:              c.Role,
		PoliceStationName: c.PoliceStationName,
		BadgeID:           c.BadgeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// Validate parses token and returns its claims
func (m *Manager) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// SetCookie writes the session cookie for token
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(Lifetime / time.Second),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
