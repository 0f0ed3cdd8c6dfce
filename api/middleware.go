package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/config"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
	"github.com/linesmerrill/malkhana-api/session"
)

// BasicCacheTTL bounds how long a verified basic credential is reused
// without going back to the database.
const BasicCacheTTL = time.Minute

// SessionMiddleware loads the caller from the session token on each request
type SessionMiddleware struct {
	Sessions *session.Manager
	Identity services.Identity
}

// tokenFromRequest reads a bearer token first and falls back to the session cookie
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(session.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// resolve validates the token and reloads the account so role changes and
// deletions take effect on the next request.
func (m SessionMiddleware) resolve(r *http.Request) (*models.Caller, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, models.ErrUnauthenticated
	}
	claims, err := m.Sessions.Validate(token)
	if err != nil {
		return nil, models.ErrUnauthenticated
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, models.ErrUnauthenticated
	}

	ctx, cancel := WithQueryTimeout(r.Context())
	defer cancel()
	user, err := m.Identity.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.CallerFromUser(*user), nil
}

// refresh issues a new token so an active session keeps sliding forward
func (m SessionMiddleware) refresh(w http.ResponseWriter, caller *models.Caller) {
	token, _, err := m.Sessions.Issue(*caller)
	if err != nil {
		zap.S().Errorw("failed to refresh session", "user", caller.Username, "error", err)
		return
	}
	m.Sessions.SetCookie(w, token)
	w.Header().Set(session.HeaderName, token)
}

// Middleware rejects requests without a valid session
func (m SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := m.resolve(r)
		if err != nil {
			status := http.StatusUnauthorized
			message := models.ErrUnauthenticated.Message
			if models.KindOf(err) == models.KindInternal {
				status = http.StatusInternalServerError
				message = models.InternalErrorMessage
			}
			zap.S().Debugw("unauthorized", "url", r.URL.Path)
			config.ErrorStatus(message, status, w, unwrapInternal(err))
			return
		}
		m.refresh(w, caller)
		zap.S().Debugf("User %s Authenticated", caller.Username)
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// Optional loads the caller when a valid session is present and lets
// anonymous requests through untouched.
func (m SessionMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := m.resolve(r)
		if err == nil {
			m.refresh(w, caller)
			r = r.WithContext(WithCaller(r.Context(), caller))
		}
		next.ServeHTTP(w, r)
	})
}

func unwrapInternal(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err
	}
	return nil
}

// BasicAuth verifies HTTP Basic credentials for the token endpoint
type BasicAuth struct {
	authenticator auth.Authenticator
}

// NewBasicAuth sets up the go-guardian basic strategy backed by identity
func NewBasicAuth(ctx context.Context, identity services.Identity) *BasicAuth {
	authenticator := auth.New()
	cache := store.NewFIFO(ctx, BasicCacheTTL)
	validate := func(ctx context.Context, r *http.Request, username, password string) (auth.Info, error) {
		qctx, cancel := WithQueryTimeout(ctx)
		defer cancel()
		user, err := identity.Authenticate(qctx, username, password)
		if err != nil {
			return nil, err
		}
		return auth.NewDefaultUser(user.Username, user.ID.Hex(), []string{string(user.Role)}, nil), nil
	}
	authenticator.EnableStrategy(basic.StrategyKey, basic.New(validate, cache))
	return &BasicAuth{authenticator: authenticator}
}

// Authenticate returns the account id behind the request's basic credentials
func (b *BasicAuth) Authenticate(r *http.Request) (primitive.ObjectID, error) {
	if _, _, ok := r.BasicAuth(); !ok {
		return primitive.NilObjectID, models.NewValidation("Please provide username and password")
	}
	info, err := b.authenticator.Authenticate(r)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidCredentials
	}
	id, err := primitive.ObjectIDFromHex(info.ID())
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidCredentials
	}
	return id, nil
}
