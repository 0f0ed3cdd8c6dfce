package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/services"
)

const userNotFound = "User not found"

// User exported for testing purposes
type User struct {
	Service *services.UserService
}

// UserCreateHandler creates an account. The very first account needs no session.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caller := api.CallerFromContext(r.Context())
	if err := u.Service.PermitCreate(ctx, caller); err != nil {
		writeError(w, err)
		return
	}
	var in services.CreateUserInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := u.Service.CreateUser(ctx, caller, in)
	if err != nil {
		writeError(w, err)
		return
	}
	zap.S().Infow("user created", "user", user.Username, "role", user.Role)
	writeJSON(w, http.StatusCreated, "User created successfully", user)
}

// UsersHandler lists accounts, optionally narrowed by ?role=
func (u User) UsersHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.ListUsers) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	users, err := u.Service.ListUsers(ctx, api.CallerFromContext(r.Context()), r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", users)
}

// UserHandler returns one account
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if err := services.PermitSelf(caller, policy.ViewUser, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id", userNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.Service.GetUser(ctx, caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", user)
}

// UpdateUserHandler merges the body into an account
func (u User) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if err := services.PermitSelf(caller, policy.UpdateUser, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id", userNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.UpdateUserInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.Service.UpdateUser(ctx, caller, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "User updated successfully", user)
}

// DeleteUserHandler removes an account
func (u User) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.DeleteUser) {
		return
	}
	id, err := pathID(r, "id", userNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := u.Service.DeleteUser(ctx, api.CallerFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "User deleted successfully", nil)
}
