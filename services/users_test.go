package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/malkhana-api/api/testhelpers"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

func TestCreateUserBootstrapsSuperAdmin(t *testing.T) {
	svc := &services.UserService{Users: testhelpers.NewUserStore()}

	u, err := svc.CreateUser(context.Background(), nil, userInput("  Root ", "SA-1", models.RoleOfficer))
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, u.Role)
	assert.Equal(t, "root", u.Username)
	assert.False(t, u.ID.IsZero())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret123")))
}

func TestCreateUserRequiresAdminAfterBootstrap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userSvc.CreateUser(ctx, nil, userInput("anon", "X-1", ""))
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = f.userSvc.CreateUser(ctx, f.officer, userInput("anon", "X-1", ""))
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Only admins can create users", messageOf(err))
}

func TestCreateUserRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  *models.Caller
		role    models.Role
		kind    models.ErrorKind
		message string
	}{
		{"admin cannot create admin", f.admin, models.RoleAdmin, models.KindForbidden, "You can only create OFFICER accounts"},
		{"nobody creates a second super admin", f.superAdmin, models.RoleSuperAdmin, models.KindForbidden, "Cannot create additional Super Admin"},
		{"unknown role", f.superAdmin, models.Role("CHIEF"), models.KindValidation, "role must be one of: ADMIN, OFFICER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.userSvc.CreateUser(ctx, tt.caller, userInput("newbie", "NB-1", tt.role))
			requireKind(t, err, tt.kind)
			assert.Equal(t, tt.message, messageOf(err))
		})
	}

	u, err := f.userSvc.CreateUser(ctx, f.admin, userInput("defaulted", "DF-1", ""))
	require.NoError(t, err)
	assert.Equal(t, models.RoleOfficer, u.Role)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := userInput("ab", "V-1", "")
	_, err := f.userSvc.CreateUser(ctx, f.admin, in)
	requireKind(t, err, models.KindValidation)
	assert.Equal(t, "username must be at least 3 characters", messageOf(err))

	in = userInput("valid", "V-1", "")
	in.Password = "123"
	_, err = f.userSvc.CreateUser(ctx, f.admin, in)
	assert.Equal(t, "password must be at least 6 characters", messageOf(err))

	in = userInput("valid", "V-1", "")
	in.FullName = "   "
	_, err = f.userSvc.CreateUser(ctx, f.admin, in)
	assert.Equal(t, "fullName is required", messageOf(err))
}

func TestCreateUserUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userSvc.CreateUser(ctx, f.admin, userInput("RAVI", "NEW-1", ""))
	requireKind(t, err, models.KindConflict)
	assert.Equal(t, "Username already exists", messageOf(err))

	_, err = f.userSvc.CreateUser(ctx, f.admin, userInput("someone", "OF-1", ""))
	requireKind(t, err, models.KindConflict)
	assert.Equal(t, "Badge ID already exists", messageOf(err))
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.userSvc.GetUser(ctx, f.officer, f.officer.ID)
	require.NoError(t, err)
	assert.Equal(t, "ravi", u.Username)

	_, err = f.userSvc.GetUser(ctx, f.officer, f.admin.ID)
	requireKind(t, err, models.KindForbidden)

	u, err = f.userSvc.GetUser(ctx, f.admin, f.officer.ID)
	require.NoError(t, err)
	assert.Equal(t, f.officer.ID, u.ID)

	_, err = f.userSvc.GetUser(ctx, f.admin, primitive.NewObjectID())
	requireKind(t, err, models.KindNotFound)
}

func TestListUsersHidesSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users, err := f.userSvc.ListUsers(ctx, f.superAdmin, "")
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, models.RoleSuperAdmin, u.Role)
	}

	users, err = f.userSvc.ListUsers(ctx, f.admin, "officer")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ravi", users[0].Username)

	users, err = f.userSvc.ListUsers(ctx, f.admin, "SUPER_ADMIN")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = f.userSvc.ListUsers(ctx, f.officer, "")
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Only admins can view users", messageOf(err))
}

func TestUpdateUserSelfService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.userSvc.UpdateUser(ctx, f.officer, f.officer.ID, services.UpdateUserInput{
		FullName: strPtr("Ravi Shankar"),
		Password: strPtr("newpass1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Shankar", u.FullName)
	assert.Equal(t, "Central", u.PoliceStationName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("newpass1")))

	admin := models.RoleAdmin
	_, err = f.userSvc.UpdateUser(ctx, f.officer, f.officer.ID, services.UpdateUserInput{Role: &admin})
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "You cannot change your own role", messageOf(err))

	_, err = f.userSvc.UpdateUser(ctx, f.officer, f.admin.ID, services.UpdateUserInput{FullName: strPtr("x")})
	requireKind(t, err, models.KindForbidden)

	_, err = f.userSvc.UpdateUser(ctx, f.officer, f.officer.ID, services.UpdateUserInput{Password: strPtr("123")})
	requireKind(t, err, models.KindValidation)
}

func TestUpdateUserRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := models.RoleAdmin
	officer := models.RoleOfficer
	super := models.RoleSuperAdmin

	_, err := f.userSvc.UpdateUser(ctx, f.admin, f.officer.ID, services.UpdateUserInput{Role: &admin})
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "You cannot assign admin roles", messageOf(err))

	_, err = f.userSvc.UpdateUser(ctx, f.admin, f.superAdmin.ID, services.UpdateUserInput{FullName: strPtr("x")})
	requireKind(t, err, models.KindForbidden)

	_, err = f.userSvc.UpdateUser(ctx, f.superAdmin, f.officer.ID, services.UpdateUserInput{Role: &super})
	requireKind(t, err, models.KindForbidden)

	u, err := f.userSvc.UpdateUser(ctx, f.superAdmin, f.officer.ID, services.UpdateUserInput{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	u, err = f.userSvc.UpdateUser(ctx, f.superAdmin, f.officer.ID, services.UpdateUserInput{Role: &officer})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOfficer, u.Role)
}

func TestUpdateUserBadgeConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.userSvc.UpdateUser(context.Background(), f.admin, f.officer.ID, services.UpdateUserInput{BadgeID: strPtr("AD-1")})
	requireKind(t, err, models.KindConflict)
	assert.Equal(t, "Badge ID already exists", messageOf(err))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.userSvc.DeleteUser(ctx, f.admin, f.officer.ID)
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Only Super Admin can delete users", messageOf(err))

	err = f.userSvc.DeleteUser(ctx, f.superAdmin, f.superAdmin.ID)
	requireKind(t, err, models.KindForbidden)
	assert.Equal(t, "Cannot delete Super Admin", messageOf(err))

	require.NoError(t, f.userSvc.DeleteUser(ctx, f.superAdmin, f.officer.ID))
	_, err = f.userSvc.GetUser(ctx, f.superAdmin, f.officer.ID)
	requireKind(t, err, models.KindNotFound)

	err = f.userSvc.DeleteUser(ctx, f.superAdmin, f.officer.ID)
	requireKind(t, err, models.KindNotFound)
}
