package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
)

// PasswordCost is the bcrypt cost for stored password hashes
var PasswordCost = bcrypt.DefaultCost

// CreateUserInput is the body of a signup or admin-created account
type CreateUserInput struct {
	Username          string      `json:"username" validate:"required,min=3"`
	Password          string      `json:"password" validate:"required,min=6"`
	FullName          string      `json:"fullName" validate:"required"`
	PoliceStationName string      `json:"policeStationName" validate:"required"`
	BadgeID           string      `json:"badgeId" validate:"required"`
	Role              models.Role `json:"role"`
}

// UpdateUserInput carries the fields to change. Nil fields keep their value
// and an empty password leaves the password alone.
type UpdateUserInput struct {
	FullName          *string      `json:"fullName"`
	PoliceStationName *string      `json:"policeStationName"`
	BadgeID           *string      `json:"badgeId"`
	Role              *models.Role `json:"role"`
	Password          *string      `json:"password"`
}

type userProfile struct {
	FullName          string `json:"fullName" validate:"required"`
	PoliceStationName string `json:"policeStationName" validate:"required"`
	BadgeID           string `json:"badgeId" validate:"required"`
}

type newPassword struct {
	Password string `json:"password" validate:"min=6"`
}

// UserService manages accounts
type UserService struct {
	Users databases.UserDatabase
	Now   func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func trimInput(in *CreateUserInput) {
	in.Username = NormalizeUsername(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.PoliceStationName = strings.TrimSpace(in.PoliceStationName)
	in.BadgeID = strings.TrimSpace(in.BadgeID)
}

// CreateUser creates an account. While no accounts exist the first one is
// created as SUPER_ADMIN whatever role was asked for, and caller may be nil.
// After that the caller must be an admin allowed to grant the requested role.
func (s *UserService) CreateUser(ctx context.Context, caller *models.Caller, in CreateUserInput) (*models.User, error) {
	bootstrap, err := s.permitCreate(ctx, caller)
	if err != nil {
		return nil, err
	}

	role := models.RoleSuperAdmin
	if !bootstrap {
		role = in.Role
		if role == "" {
			role = models.RoleOfficer
		}
		if role == models.RoleSuperAdmin {
			return nil, models.NewForbidden(msgSuperAdminExists)
		}
		if !role.IsValid() {
			return nil, models.NewValidation("role must be one of: ADMIN, OFFICER")
		}
		if !policy.CanAssignRole(caller.Role, role) {
			return nil, models.NewForbidden("You can only create OFFICER accounts")
		}
	}

	trimInput(&in)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, primitive.NilObjectID, in.Username, in.BadgeID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return nil, models.NewInternal(err)
	}

	now := s.now()
	user := &models.User{
		Username:          in.Username,
		Password:          string(hash),
		FullName:          in.FullName,
		PoliceStationName: in.PoliceStationName,
		BadgeID:           in.BadgeID,
		Role:              role,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Users.Insert(ctx, user); err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	return user, nil
}

// PermitCreate reports whether caller may create accounts right now.
// Anyone may while the directory is still empty.
func (s *UserService) PermitCreate(ctx context.Context, caller *models.Caller) error {
	_, err := s.permitCreate(ctx, caller)
	return err
}

func (s *UserService) permitCreate(ctx context.Context, caller *models.Caller) (bootstrap bool, err error) {
	count, err := s.Users.Count(ctx)
	if err != nil {
		return false, models.NewInternal(err)
	}
	if count == 0 {
		return true, nil
	}
	return false, Permit(caller, policy.CreateUser)
}

// ensureUnique checks username (when given) and badge id against other accounts
func (s *UserService) ensureUnique(ctx context.Context, self primitive.ObjectID, username, badgeID string) error {
	if username != "" {
		existing, err := s.Users.FindByUsername(ctx, username)
		if err != nil && !databases.IsNotFound(err) {
			return models.NewInternal(err)
		}
		if existing != nil && existing.ID != self {
			return models.NewConflict(msgUsernameTaken)
		}
	}
	existing, err := s.Users.FindByBadgeID(ctx, badgeID)
	if err != nil && !databases.IsNotFound(err) {
		return models.NewInternal(err)
	}
	if existing != nil && existing.ID != self {
		return models.NewConflict(msgBadgeTaken)
	}
	return nil
}

// GetUser returns an account. Officers may only look at their own.
func (s *UserService) GetUser(ctx context.Context, caller *models.Caller, id primitive.ObjectID) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.ID != id {
		if err := Permit(caller, policy.ViewUser); err != nil {
			return nil, err
		}
	}
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	return user, nil
}

// ListUsers lists accounts newest first. SUPER_ADMIN is never listed and
// role narrows the result to ADMIN or OFFICER when it names one of them.
func (s *UserService) ListUsers(ctx context.Context, caller *models.Caller, role string) ([]models.User, error) {
	if err := Permit(caller, policy.ListUsers); err != nil {
		return nil, err
	}
	filter := models.UserFilter{ExcludeSuperAdmin: true}
	if r := models.Role(strings.ToUpper(strings.TrimSpace(role))); r == models.RoleAdmin || r == models.RoleOfficer {
		filter.Role = r
	}
	users, err := s.Users.Find(ctx, filter)
	if err != nil {
		return nil, models.NewInternal(err)
	}
	return users, nil
}

// UpdateUser merges in into an account. Anyone may edit their own profile and
// password but never their own role; admins may edit accounts below them.
func (s *UserService) UpdateUser(ctx context.Context, caller *models.Caller, id primitive.ObjectID, in UpdateUserInput) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	self := caller.ID == id
	if !self {
		if err := Permit(caller, policy.UpdateUser); err != nil {
			return nil, err
		}
	}

	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}

	if !self && !policy.CanModifyUser(caller.Role, user.Role) {
		return nil, models.NewForbidden("You cannot modify this account")
	}

	if in.Role != nil && *in.Role != user.Role {
		switch {
		case user.Role == models.RoleSuperAdmin:
			return nil, models.NewForbidden("Cannot change Super Admin role")
		case self:
			return nil, models.NewForbidden("You cannot change your own role")
		case *in.Role == models.RoleSuperAdmin:
			return nil, models.NewForbidden(msgSuperAdminExists)
		case !in.Role.IsValid():
			return nil, models.NewValidation("role must be one of: ADMIN, OFFICER")
		case !policy.CanAssignRole(caller.Role, *in.Role):
			return nil, models.NewForbidden("You cannot assign admin roles")
		}
		user.Role = *in.Role
	}

	profile := userProfile{
		FullName:          user.FullName,
		PoliceStationName: user.PoliceStationName,
		BadgeID:           user.BadgeID,
	}
	if in.FullName != nil {
		profile.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PoliceStationName != nil {
		profile.PoliceStationName = strings.TrimSpace(*in.PoliceStationName)
	}
	if in.BadgeID != nil {
		profile.BadgeID = strings.TrimSpace(*in.BadgeID)
	}
	if err := checkInput(profile); err != nil {
		return nil, err
	}

	if in.Password != nil && *in.Password != "" {
		if err := checkInput(newPassword{Password: *in.Password}); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), PasswordCost)
		if err != nil {
			return nil, models.NewInternal(err)
		}
		user.Password = string(hash)
	}

	if profile.BadgeID != user.BadgeID {
		if err := s.ensureUnique(ctx, user.ID, "", profile.BadgeID); err != nil {
			return nil, err
		}
	}

	user.FullName = profile.FullName
	user.PoliceStationName = profile.PoliceStationName
	user.BadgeID = profile.BadgeID
	user.UpdatedAt = s.now()

	if err := s.Users.Replace(ctx, *user); err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	return user, nil
}

// DeleteUser removes an account. Only SUPER_ADMIN may do this and the
// SUPER_ADMIN account itself can never be removed.
func (s *UserService) DeleteUser(ctx context.Context, caller *models.Caller, id primitive.ObjectID) error {
	if err := Permit(caller, policy.DeleteUser); err != nil {
		return err
	}
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, msgUserNotFound)
	}
	if !policy.CanDeleteUser(caller.Role, user.Role) {
		return models.NewForbidden("Cannot delete Super Admin")
	}
	return storeErr(s.Users.Delete(ctx, id), msgUserNotFound)
}
