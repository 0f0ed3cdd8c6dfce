// Package services holds the property-room rules: who may do what to users,
// cases, properties, custody logs and disposals, and in which order those
// checks happen. Every operation checks authentication, then authorization,
// then existence, then validation and business rules.
package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/metrics"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
)

var validate = newValidator()

var strict = bluemonday.StrictPolicy()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkInput validates a tagged struct and turns the first failure into a
// readable Validation error.
func checkInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewInternal(err)
	}
	return models.NewValidation(fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or later", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "http_url":
		return fmt.Sprintf("%s must be an http or https URL", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

// plainText strips any markup from free text. The result stays
// HTML-escaped, so entity-encoded markup never turns back into tags.
func plainText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// plainTextPtr sanitizes an optional incoming field
func plainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := plainText(*s)
	return &clean
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"}

// parseDate accepts a calendar date, an RFC3339 timestamp or a datetime-local value
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, models.NewValidation(fmt.Sprintf("%s is required", field))
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, models.NewValidation(fmt.Sprintf("%s must be a valid date", field))
}

func requireCaller(caller *models.Caller) error {
	if caller == nil || caller.ID.IsZero() || !caller.Role.IsValid() {
		return models.ErrUnauthenticated
	}
	return nil
}

// deniedMessages is what a caller is told when the policy refuses an action
var deniedMessages = map[policy.Action]string{
	policy.CreateCase:       "You cannot create cases",
	policy.ViewCase:         "You cannot view cases",
	policy.UpdateCase:       "You cannot update cases",
	policy.DeleteCase:       "Only admins can delete cases",
	policy.CreateProperty:   "You cannot add properties",
	policy.UpdateProperty:   "You cannot update properties",
	policy.DeleteProperty:   "You cannot delete properties",
	policy.GenerateQRCode:   "You cannot generate QR codes",
	policy.UploadPhoto:      "You cannot upload photos",
	policy.CreateCustodyLog: "You cannot record custody transfers",
	policy.ViewCustodyLogs:  "You cannot view custody logs",
	policy.DisposeCase:      "Only admins can dispose cases",
	policy.AmendDisposal:    "Only admins can update disposal",
	policy.ViewStats:        "You cannot view statistics",
	policy.ListUsers:        "Only admins can view users",
	policy.ViewUser:         "You can only view your own profile",
	policy.CreateUser:       "Only admins can create users",
	policy.UpdateUser:       "Only admins can update users",
	policy.DeleteUser:       "Only Super Admin can delete users",
}

// Permit checks the session and then the role policy. Handlers call it
// before reading path ids or bodies so a refused caller always sees 401 or
// 403, whatever else is wrong with the request.
func Permit(caller *models.Caller, action policy.Action) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !policy.Can(caller.Role, action) {
		metrics.RecordDenied(string(action))
		msg, ok := deniedMessages[action]
		if !ok {
			msg = "You are not allowed to do this"
		}
		return models.NewForbidden(msg)
	}
	return nil
}

// PermitSelf is Permit for actions every caller may perform on their own
// account. rawID is the unparsed target id; anything other than the
// caller's own id needs the action.
func PermitSelf(caller *models.Caller, action policy.Action, rawID string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if strings.TrimSpace(rawID) == caller.ID.Hex() {
		return nil
	}
	return Permit(caller, action)
}

// storeErr maps a persistence failure onto the error taxonomy
func storeErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if databases.IsNotFound(err) {
		return models.NewNotFound(notFound)
	}
	switch databases.DuplicateField(err) {
	case databases.FieldUsername:
		return models.NewConflict(msgUsernameTaken)
	case databases.FieldBadgeID:
		return models.NewConflict(msgBadgeTaken)
	case databases.FieldCrimeNumber:
		return models.NewConflict(msgCrimeNumberTaken)
	case databases.FieldSuperAdmin:
		return models.NewConflict(msgSuperAdminExists)
	case "":
	default:
		return models.NewConflict("Duplicate value")
	}
	return models.NewInternal(err)
}

// ParseID converts a path id. Malformed ids cannot resolve, so they are
// reported as NotFound with the given message.
func ParseID(hex, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, models.NewNotFound(notFound)
	}
	return id, nil
}

// Common messages
const (
	msgUsernameTaken    = "Username already exists"
	msgBadgeTaken       = "Badge ID already exists"
	msgCrimeNumberTaken = "Crime number already exists"
	msgSuperAdminExists = "Cannot create additional Super Admin"
	msgUserNotFound     = "User not found"
	msgCaseNotFound     = "Case not found"
	msgPropertyNotFound = "Property not found"
	msgSeizureBeforeFIR = "Date of Seizure cannot be before Date of FIR"
)
