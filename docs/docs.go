// Package docs Davangere Case Registry API.
//
// Documentation of the Davangere District Police case registry API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/davangere-police/case-registry-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/case/{case_id} cases caseByID
// Gets a single case record by ID.
// responses:
//   200: caseByIDResponse

// Shows a single case record by the given {ID}
// swagger:response caseByIDResponse
type caseByIDResponseWrapper struct {
	// in:body
	Body models.CaseRecord
}

// swagger:route POST /api/v1/cases/bulk cases bulkUpload
// Reconciles a batch of case records against the registry.
// responses:
//   200: bulkUploadResponse

// Per-batch outcome: counts of inserted and updated rows plus row-level errors.
// swagger:response bulkUploadResponse
type bulkUploadResponseWrapper struct {
	// in:body
	Body models.BatchResult
}
