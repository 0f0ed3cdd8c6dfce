package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/services"
)

const (
	caseNotFound     = "Case not found"
	propertyNotFound = "Property not found"
)

// Case exported for testing purposes
type Case struct {
	Service *services.CaseService
}

// CasesHandler lists cases newest first, filtered by ?status= and ?search=
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.ViewCase) {
		return
	}
	filter := models.CaseFilter{
		Status: models.CaseStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := c.Service.ListCases(ctx, api.CallerFromContext(r.Context()), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", cases)
}

// CreateCaseHandler registers a new case
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.CreateCase) {
		return
	}
	var in services.CaseInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := c.Service.CreateCase(ctx, api.CallerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	zap.S().Infow("case created", "caseId", created.ID.Hex(), "crimeNumber", created.CrimeNumber)
	writeJSON(w, http.StatusCreated, "Case created successfully", created)
}

// CaseHandler returns one case
func (c Case) CaseHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.ViewCase) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := c.Service.GetCase(ctx, api.CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", found)
}

// UpdateCaseHandler merges the body into the case details
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.UpdateCase) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.UpdateCaseInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.UpdateCase(ctx, api.CallerFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Case updated successfully", updated)
}

// DeleteCaseHandler removes a case
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.DeleteCase) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caller := api.CallerFromContext(r.Context())
	if err := c.Service.DeleteCase(ctx, caller, id); err != nil {
		writeError(w, err)
		return
	}
	zap.S().Infow("case deleted", "caseId", id.Hex(), "by", caller.Username)
	writeJSON(w, http.StatusOK, "Case deleted successfully", nil)
}

// StatsHandler returns the dashboard counters
func (c Case) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.ViewStats) {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	stats, err := c.Service.Stats(ctx, api.CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", stats)
}
