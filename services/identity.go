package services

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/models"
)

// Identity checks username and password pairs against stored hashes
type Identity struct {
	Users databases.UserDatabase
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// compareDummy burns the same bcrypt work as a real comparison so a missing
// username takes as long to reject as a wrong password.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("malkhana-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// NormalizeUsername trims and lower-cases a username for storage and lookup
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Authenticate returns the user for a valid username and password. An unknown
// username and a wrong password fail with the same error.
func (i Identity) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, models.NewValidation("Please provide username and password")
	}

	user, err := i.Users.FindByUsername(ctx, username)
	if err != nil {
		if databases.IsNotFound(err) {
			compareDummy(password)
			return nil, models.ErrInvalidCredentials
		}
		return nil, models.NewInternal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// Lookup loads the account behind an authenticated id. A deleted account no
// longer authenticates.
func (i Identity) Lookup(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := i.Users.FindByID(ctx, id)
	if err != nil {
		if databases.IsNotFound(err) {
			return nil, models.ErrUnauthenticated
		}
		return nil, models.NewInternal(err)
	}
	return user, nil
}
