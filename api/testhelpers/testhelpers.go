// Package testhelpers provides in-memory implementations of the database
// interfaces for service and handler tests.
package testhelpers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/malkhana-api/models"
)

func duplicateKey(index string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: "E11000 duplicate key error index: " + index + " dup key",
	}}}
}

// UserStore is an in-memory databases.UserDatabase
type UserStore struct {
	mu    sync.Mutex
	users []models.User

	// Err, when set, is returned from every call
	Err error
}

// NewUserStore returns an empty UserStore
func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		switch {
		case u.Username == user.Username:
			return duplicateKey("username_unique")
		case u.BadgeID == user.BadgeID:
			return duplicateKey("badgeId_unique")
		case u.Role == models.RoleSuperAdmin && user.Role == models.RoleSuperAdmin:
			return duplicateKey("single_super_admin")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *UserStore) findBy(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findBy(func(u models.User) bool { return u.ID == id })
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findBy(func(u models.User) bool { return u.Username == username })
}

func (s *UserStore) FindByBadgeID(_ context.Context, badgeID string) (*models.User, error) {
	return s.findBy(func(u models.User) bool { return u.BadgeID == badgeID })
}

func (s *UserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.User
	for _, u := range s.users {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (s *UserStore) Find(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.User{}
	for _, u := range s.users {
		if filter.ExcludeSuperAdmin && u.Role == models.RoleSuperAdmin {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *UserStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.users)), nil
}

func (s *UserStore) Replace(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.BadgeID == user.BadgeID {
			return duplicateKey("badgeId_unique")
		}
	}
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users[i] = user
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *UserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *UserStore) EnsureIndexes(context.Context) error {
	return nil
}

// CaseStore is an in-memory databases.CaseDatabase
type CaseStore struct {
	mu    sync.Mutex
	cases []*models.Case

	// Err, when set, is returned from every call
	Err error
}

// NewCaseStore returns an empty CaseStore
func NewCaseStore() *CaseStore {
	return &CaseStore{}
}

func clone(c *models.Case) *models.Case {
	out := *c
	out.Properties = append([]models.Property{}, c.Properties...)
	out.CustodyLogs = append([]models.CustodyLog{}, c.CustodyLogs...)
	if c.Disposal != nil {
		d := *c.Disposal
		out.Disposal = &d
	}
	return &out
}

func (s *CaseStore) Insert(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.cases {
		if existing.CrimeNumber == c.CrimeNumber {
			return duplicateKey("crimeNumber_unique")
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Properties == nil {
		c.Properties = []models.Property{}
	}
	if c.CustodyLogs == nil {
		c.CustodyLogs = []models.CustodyLog{}
	}
	s.cases = append(s.cases, clone(c))
	return nil
}

// locked finds the first case matching and hands it to fn under the lock
func (s *CaseStore) locked(match func(*models.Case) bool, fn func(*models.Case) error) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, c := range s.cases {
		if match(c) {
			if fn != nil {
				if err := fn(c); err != nil {
					return nil, err
				}
			}
			return clone(c), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func byID(id primitive.ObjectID) func(*models.Case) bool {
	return func(c *models.Case) bool { return c.ID == id }
}

func hasProperty(id primitive.ObjectID) func(*models.Case) bool {
	return func(c *models.Case) bool {
		_, ok := c.FindProperty(id)
		return ok
	}
}

func (s *CaseStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Case, error) {
	return s.locked(byID(id), nil)
}

func (s *CaseStore) FindByCrimeNumber(_ context.Context, crimeNumber string) (*models.Case, error) {
	return s.locked(func(c *models.Case) bool { return c.CrimeNumber == crimeNumber }, nil)
}

func (s *CaseStore) FindByPropertyID(_ context.Context, propertyID primitive.ObjectID) (*models.Case, error) {
	return s.locked(hasProperty(propertyID), nil)
}

func (s *CaseStore) Find(_ context.Context, filter models.CaseFilter) ([]models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := []models.Case{}
	for _, c := range s.cases {
		if filter.Status.IsValid() && c.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.CrimeNumber), search) &&
			!strings.Contains(strings.ToLower(c.InvestigatingOfficerName), search) &&
			!strings.Contains(strings.ToLower(c.PoliceStationName), search) {
			continue
		}
		out = append(out, *clone(c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *CaseStore) Count(_ context.Context, status models.CaseStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, c := range s.cases {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *CaseStore) UpdateDetails(_ context.Context, id primitive.ObjectID, details models.CaseDetails, at time.Time) (*models.Case, error) {
	s.mu.Lock()
	for _, c := range s.cases {
		if c.ID != id && c.CrimeNumber == details.CrimeNumber {
			s.mu.Unlock()
			return nil, duplicateKey("crimeNumber_unique")
		}
	}
	s.mu.Unlock()
	return s.locked(byID(id), func(c *models.Case) error {
		c.ApplyDetails(details)
		c.UpdatedAt = at
		return nil
	})
}

func (s *CaseStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for i, c := range s.cases {
		if c.ID == id {
			s.cases = append(s.cases[:i], s.cases[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *CaseStore) PushProperty(_ context.Context, id primitive.ObjectID, p models.Property) (*models.Case, error) {
	return s.locked(byID(id), func(c *models.Case) error {
		c.Properties = append(c.Properties, p)
		c.UpdatedAt = p.CreatedAt
		return nil
	})
}

func (s *CaseStore) SetProperty(_ context.Context, id primitive.ObjectID, p models.Property) (*models.Case, error) {
	match := func(c *models.Case) bool { return c.ID == id && hasProperty(p.ID)(c) }
	return s.locked(match, func(c *models.Case) error {
		existing, _ := c.FindProperty(p.ID)
		existing.Category = p.Category
		existing.BelongingTo = p.BelongingTo
		existing.Nature = p.Nature
		existing.Quantity = p.Quantity
		existing.Location = p.Location
		existing.Description = p.Description
		existing.PhotoURL = p.PhotoURL
		existing.UpdatedAt = p.UpdatedAt
		c.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (s *CaseStore) PullProperty(_ context.Context, id, propertyID primitive.ObjectID, at time.Time) (*models.Case, error) {
	match := func(c *models.Case) bool { return c.ID == id && hasProperty(propertyID)(c) }
	return s.locked(match, func(c *models.Case) error {
		kept := c.Properties[:0]
		for _, p := range c.Properties {
			if p.ID != propertyID {
				kept = append(kept, p)
			}
		}
		c.Properties = kept
		c.UpdatedAt = at
		return nil
	})
}

func (s *CaseStore) PushCustodyLog(_ context.Context, id primitive.ObjectID, entry models.CustodyLog) (*models.Case, error) {
	return s.locked(byID(id), func(c *models.Case) error {
		c.CustodyLogs = append(c.CustodyLogs, entry)
		c.UpdatedAt = entry.CreatedAt
		return nil
	})
}

func (s *CaseStore) SetDisposal(_ context.Context, id primitive.ObjectID, d models.Disposal) (*models.Case, error) {
	match := func(c *models.Case) bool { return c.ID == id && c.Status == models.CaseStatusPending }
	return s.locked(match, func(c *models.Case) error {
		c.Disposal = &d
		c.Status = models.CaseStatusDisposed
		c.UpdatedAt = d.UpdatedAt
		return nil
	})
}

func (s *CaseStore) ReplaceDisposal(_ context.Context, id primitive.ObjectID, d models.Disposal) (*models.Case, error) {
	match := func(c *models.Case) bool { return c.ID == id && c.Status == models.CaseStatusDisposed }
	return s.locked(match, func(c *models.Case) error {
		c.Disposal = &d
		c.UpdatedAt = d.UpdatedAt
		return nil
	})
}

func (s *CaseStore) SetPropertyQRCode(_ context.Context, propertyID primitive.ObjectID, qrCode string) (*models.Case, error) {
	match := func(c *models.Case) bool {
		p, ok := c.FindProperty(propertyID)
		return ok && p.QRCode == ""
	}
	return s.locked(match, func(c *models.Case) error {
		p, _ := c.FindProperty(propertyID)
		p.QRCode = qrCode
		return nil
	})
}

func (s *CaseStore) EnsureIndexes(context.Context) error {
	return nil
}
