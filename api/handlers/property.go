package handlers

import (
	"net/http"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/services"
)

// AddPropertyHandler attaches a property to a case
func (c Case) AddPropertyHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.CreateProperty) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.PropertyInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.AddProperty(ctx, api.CallerFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Property added successfully", updated)
}

// UpdatePropertyHandler merges the body into a property
func (c Case) UpdatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.UpdateProperty) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyId", propertyNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	var in services.UpdatePropertyInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.UpdateProperty(ctx, api.CallerFromContext(r.Context()), id, propertyID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Property updated successfully", updated)
}

// DeletePropertyHandler removes a property from a case
func (c Case) DeletePropertyHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.DeleteProperty) {
		return
	}
	id, err := pathID(r, "id", caseNotFound)
	if err != nil {
		writeError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyId", propertyNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.DeleteProperty(ctx, api.CallerFromContext(r.Context()), id, propertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "Property deleted successfully", updated)
}

// PropertyQRCodeHandler returns the property's label image, rendering it on first use
func (c Case) PropertyQRCodeHandler(w http.ResponseWriter, r *http.Request) {
	if !permit(w, r, policy.GenerateQRCode) {
		return
	}
	propertyID, err := pathID(r, "propertyId", propertyNotFound)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	code, err := c.Service.GetOrCreateQRCode(ctx, api.CallerFromContext(r.Context()), propertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", code)
}
