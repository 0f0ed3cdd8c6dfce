// Package policy decides what each role may do. Every permission check in
// the service layer goes through this package.
package policy

import "github.com/linesmerrill/malkhana-api/models"

// Action is an operation a caller may attempt
type Action string

// Case actions
const (
	CreateCase       Action = "case.create"
	ViewCase         Action = "case.view"
	UpdateCase       Action = "case.update"
	DeleteCase       Action = "case.delete"
	CreateProperty   Action = "property.create"
	UpdateProperty   Action = "property.update"
	DeleteProperty   Action = "property.delete"
	GenerateQRCode   Action = "property.qrcode"
	UploadPhoto      Action = "property.photo"
	CreateCustodyLog Action = "custody.create"
	ViewCustodyLogs  Action = "custody.view"
	DisposeCase      Action = "disposal.create"
	AmendDisposal    Action = "disposal.amend"
	ViewStats        Action = "stats.view"
)

// User actions
const (
	ListUsers  Action = "user.list"
	ViewUser   Action = "user.view"
	CreateUser Action = "user.create"
	UpdateUser Action = "user.update"
	DeleteUser Action = "user.delete"
)

var everyone = []Action{
	CreateCase, ViewCase, UpdateCase,
	CreateProperty, UpdateProperty, DeleteProperty, GenerateQRCode, UploadPhoto,
	CreateCustodyLog, ViewCustodyLogs,
	ViewStats,
}

var admins = []Action{
	DeleteCase,
	DisposeCase, AmendDisposal,
	ListUsers, ViewUser, CreateUser, UpdateUser,
}

// rolePermissions is the single permission table
var rolePermissions = map[models.Role][]Action{
	models.RoleSuperAdmin: concat(everyone, admins, []Action{DeleteUser}),
	models.RoleAdmin:      concat(everyone, admins),
	models.RoleOfficer:    everyone,
}

func concat(groups ...[]Action) []Action {
	var out []Action
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Can reports whether role may perform action
func Can(role models.Role, action Action) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == action {
			return true
		}
	}
	return false
}

// CanAssignRole reports whether a caller with callerRole may give an account
// the target role, either on creation or through an update. Nobody can hand
// out SUPER_ADMIN.
func CanAssignRole(callerRole, target models.Role) bool {
	switch callerRole {
	case models.RoleSuperAdmin:
		return target == models.RoleAdmin || target == models.RoleOfficer
	case models.RoleAdmin:
		return target == models.RoleOfficer
	default:
		return false
	}
}

// CanModifyUser reports whether callerRole may edit an account that currently
// holds targetRole. ADMINs manage officers only.
func CanModifyUser(callerRole, targetRole models.Role) bool {
	if !Can(callerRole, UpdateUser) {
		return false
	}
	if callerRole == models.RoleSuperAdmin {
		return true
	}
	return targetRole == models.RoleOfficer
}

// CanDeleteUser reports whether callerRole may delete an account holding targetRole
func CanDeleteUser(callerRole, targetRole models.Role) bool {
	return Can(callerRole, DeleteUser) && targetRole != models.RoleSuperAdmin
}
