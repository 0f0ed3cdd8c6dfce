// Package docs Malkhana API.
//
// Documentation of the Malkhana property room API.
//
//	 Schemes: https
//	 BasePath: /
//	 Version: 1.0.0
//
//	 Consumes:
//	 - application/json
//
//	 Produces:
//	 - application/json
//
//	 Security:
//	 - session
//
//	SecurityDefinitions:
//	session:
//	  type: apiKey
//	  in: header
//	  name: Authorization
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body struct {
		Alive bool `json:"alive"`
	}
}

// swagger:route POST /api/v1/auth/login auth login
// Starts a session for a username and password.
// responses:
//   200: envelopeResponse
//   400: envelopeResponse
//   401: envelopeResponse

// swagger:parameters login
type loginParamsWrapper struct {
	// in:body
	Body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
}

// swagger:route POST /api/v1/cases cases createCase
// Registers a new case.
// responses:
//   201: caseResponse
//   400: envelopeResponse
//   401: envelopeResponse

// swagger:parameters createCase
type createCaseParamsWrapper struct {
	// in:body
	Body services.CaseInput
}

// swagger:route GET /api/v1/cases/{id} cases caseByID
// Gets a single case by ID.
// responses:
//   200: caseResponse
//   404: envelopeResponse

// A single case with its properties, custody logs and disposal
// swagger:response caseResponse
type caseResponseWrapper struct {
	// in:body
	Body struct {
		Success bool        `json:"success"`
		Data    models.Case `json:"data"`
	}
}

// swagger:route POST /api/v1/cases/{id}/disposal disposal disposeCase
// Disposes a pending case. Admins only.
// responses:
//   201: caseResponse
//   400: envelopeResponse
//   403: envelopeResponse

// swagger:parameters disposeCase
type disposeParamsWrapper struct {
	// in:body
	Body services.DisposalInput
}

// swagger:route GET /api/v1/properties/qrcode/{propertyId} properties propertyQRCode
// Gets the label image of a property, rendering it on first use.
// responses:
//   200: qrCodeResponse
//   404: envelopeResponse

// swagger:response qrCodeResponse
type qrCodeResponseWrapper struct {
	// in:body
	Body struct {
		Success bool                  `json:"success"`
		Data    models.PropertyQRCode `json:"data"`
	}
}

// Every response is wrapped in this envelope
// swagger:response envelopeResponse
type envelopeResponseWrapper struct {
	// in:body
	Body models.Response
}
