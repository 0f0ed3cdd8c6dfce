package models

// Role is the access level carried by every user account
type Role string

// Predefined Role values
const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleOfficer    Role = "OFFICER"
)

// ValidRoles returns all valid Role values
func ValidRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleOfficer}
}

// IsValid checks if the Role value is one of the predefined constants
func (r Role) IsValid() bool {
	for _, valid := range ValidRoles() {
		if r == valid {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role is ADMIN or SUPER_ADMIN
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// CaseStatus is the lifecycle state of a case
type CaseStatus string

// Predefined CaseStatus values
const (
	CaseStatusPending  CaseStatus = "PENDING"
	CaseStatusDisposed CaseStatus = "DISPOSED"
)

// IsValid checks if the CaseStatus value is one of the predefined constants
func (s CaseStatus) IsValid() bool {
	return s == CaseStatusPending || s == CaseStatusDisposed
}

// BelongingTo records whose property a seized item is
type BelongingTo string

// Predefined BelongingTo values
const (
	BelongingToAccused     BelongingTo = "ACCUSED"
	BelongingToComplainant BelongingTo = "COMPLAINANT"
	BelongingToUnknown     BelongingTo = "UNKNOWN"
)

// DisposalType is how the properties of a case were finally resolved
type DisposalType string

// Predefined DisposalType values
const (
	DisposalReturned     DisposalType = "RETURNED"
	DisposalDestroyed    DisposalType = "DESTROYED"
	DisposalAuctioned    DisposalType = "AUCTIONED"
	DisposalCourtCustody DisposalType = "COURT_CUSTODY"
)

// ValidDisposalTypes returns all valid DisposalType values
func ValidDisposalTypes() []DisposalType {
	return []DisposalType{DisposalReturned, DisposalDestroyed, DisposalAuctioned, DisposalCourtCustody}
}

// IsValid checks if the DisposalType value is one of the predefined constants
func (t DisposalType) IsValid() bool {
	for _, valid := range ValidDisposalTypes() {
		if t == valid {
			return true
		}
	}
	return false
}
