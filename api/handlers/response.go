package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/config"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/services"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

var errInvalidBody = models.NewValidation("Invalid request body")

// writeJSON writes the success envelope
func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	b, err := json.Marshal(models.Response{Success: true, Message: message, Data: data})
	if err != nil {
		config.ErrorStatus(models.InternalErrorMessage, http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// statusFor maps an error kind onto its HTTP status
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindUnauthenticated:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict, models.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the failure envelope for err. Only the public message of
// an AppError reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternal(err)
	}
	var cause error
	if appErr.Kind == models.KindInternal {
		cause = err
	}
	config.ErrorStatus(appErr.Message, statusFor(appErr.Kind), w, cause)
}

// decode reads a JSON body into v
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewValidation("Request body is required")
		}
		return errInvalidBody
	}
	return nil
}

// permit refuses the request unless the caller may perform action. Handlers
// call it before reading path ids or bodies.
func permit(w http.ResponseWriter, r *http.Request, action policy.Action) bool {
	if err := services.Permit(api.CallerFromContext(r.Context()), action); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// pathID reads an ObjectID path variable. Malformed ids are reported with
// notFound since they can never resolve.
func pathID(r *http.Request, name, notFound string) (primitive.ObjectID, error) {
	return services.ParseID(mux.Vars(r)[name], notFound)
}
