package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/metrics"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
	"github.com/linesmerrill/malkhana-api/session"
)

// Auth exported for testing purposes
type Auth struct {
	Identity services.Identity
	Sessions *session.Manager
	Basic    *api.BasicAuth
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *models.Caller `json:"user"`
}

// startSession issues a token for user, sets the cookie and writes the response
func (a Auth) startSession(w http.ResponseWriter, user *models.User) {
	caller := models.CallerFromUser(*user)
	token, exp, err := a.Sessions.Issue(*caller)
	if err != nil {
		writeError(w, models.NewInternal(err))
		return
	}
	a.Sessions.SetCookie(w, token)
	w.Header().Set(session.HeaderName, token)
	metrics.RecordLogin("success")
	zap.S().Infow("user logged in", "user", user.Username, "role", user.Role)
	writeJSON(w, http.StatusOK, "Login successful", loginResponse{Token: token, ExpiresAt: exp, User: caller})
}

// LoginHandler checks a username and password and starts a session
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Identity.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		metrics.RecordLogin("failure")
		writeError(w, err)
		return
	}
	a.startSession(w, user)
}

// TokenHandler exchanges HTTP Basic credentials for a session token
func (a Auth) TokenHandler(w http.ResponseWriter, r *http.Request) {
	id, err := a.Basic.Authenticate(r)
	if err != nil {
		metrics.RecordLogin("failure")
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.Identity.Lookup(ctx, id)
	if err != nil {
		metrics.RecordLogin("failure")
		writeError(w, err)
		return
	}
	a.startSession(w, user)
}

// LogoutHandler clears the session cookie
func (a Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	a.Sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, "Logged out", nil)
}

// SessionHandler returns the current caller
func (a Auth) SessionHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		writeError(w, models.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, "", caller)
}
