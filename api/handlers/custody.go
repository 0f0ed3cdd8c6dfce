package handlers

import (
	"net/http"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/services"
)

// CustodyLogsHandler returns the custody ledger in the order it was written
func (c Case) CustodyLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.ViewCustodyLogs) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	logs, err := c.Service.ListCustodyLogs(ctx, api.CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", logs)
}

// AppendCustodyLogHandler records a custody transfer
func (c Case) AppendCustodyLogHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.CreateCustodyLog) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.CustodyLogInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.AppendCustodyLog(ctx, api.CallerFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Custody log added successfully", updated)
}

// DisposeHandler records the disposal of a case
func (c Case) DisposeHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.DisposeCase) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.DisposalInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.Dispose(ctx, api.CallerFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Case disposed successfully", updated)
}

// AmendDisposalHandler merges the body into an existing disposal
func (c Case) AmendDisposalHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.AmendDisposal) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.AmendDisposalInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.AmendDisposal(ctx, api.CallerFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Disposal updated successfully", updated)
}
