package databases

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Index names, also used to tell which unique constraint a write violated
const (
	usernameIndex    = "username_unique"
	badgeIDIndex     = "badgeId_unique"
	superAdminIndex  = "single_super_admin"
	crimeNumberIndex = "crimeNumber_unique"
)

// Unique fields reported by DuplicateField
const (
	FieldUsername    = "username"
	FieldBadgeID     = "badgeId"
	FieldSuperAdmin  = "superAdmin"
	FieldCrimeNumber = "crimeNumber"
)

// ErrNotFound is returned when a lookup or conditional write matches nothing
var ErrNotFound = mongo.ErrNoDocuments

// IsNotFound reports whether err means no document matched
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// DuplicateField returns which unique field a failed write collided on, or
// "" when err is not a duplicate key error.
func DuplicateField(err error) string {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, usernameIndex):
		return FieldUsername
	case strings.Contains(msg, badgeIDIndex):
		return FieldBadgeID
	case strings.Contains(msg, superAdminIndex):
		return FieldSuperAdmin
	case strings.Contains(msg, crimeNumberIndex):
		return FieldCrimeNumber
	}
	return "unknown"
}
