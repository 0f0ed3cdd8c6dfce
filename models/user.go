package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username          string             `json:"username" bson:"username"`
	Password          string             `json:"-" bson:"password"`
	FullName          string             `json:"fullName" bson:"fullName"`
	PoliceStationName string             `json:"policeStationName" bson:"policeStationName"`
	BadgeID           string             `json:"badgeId" bson:"badgeId"`
	Role              Role               `json:"role" bson:"role"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary is the subset of a user embedded in case responses
type UserSummary struct {
	ID                primitive.ObjectID `json:"_id"`
	FullName          string             `json:"fullName"`
	BadgeID           string             `json:"badgeId"`
	PoliceStationName string             `json:"policeStationName"`
}

// Summary returns the public creator view of the user
func (u User) Summary() *UserSummary {
	return &UserSummary{
		ID:                u.ID,
		FullName:          u.FullName,
		BadgeID:           u.BadgeID,
		PoliceStationName: u.PoliceStationName,
	}
}

// UserFilter narrows user listings
type UserFilter struct {
	// Role restricts results to a single role when set
	Role Role
	// ExcludeSuperAdmin drops SUPER_ADMIN accounts from the results
	ExcludeSuperAdmin bool
}

// Caller identifies the authenticated user performing an operation
type Caller struct {
	ID                primitive.ObjectID `json:"id"`
	Username          string             `json:"username"`
	FullName          string             `json:"fullName"`
	Role              Role               `json:"role"`
	PoliceStationName string             `json:"policeStationName"`
	BadgeID           string             `json:"badgeId"`
}

// CallerFromUser builds a caller from a stored user record
func CallerFromUser(u User) *Caller {
	return &Caller{
		ID:                u.ID,
		Username:          u.Username,
		FullName:          u.FullName,
		Role:              u.Role,
		PoliceStationName: u.PoliceStationName,
		BadgeID:           u.BadgeID,
	}
}
