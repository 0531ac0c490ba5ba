package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/logvaultdb/logvault/internal/openapi"
)

// OpenAPIHandler serves the service's OpenAPI document. The route set is
// fixed, so the document is built once at construction.
type OpenAPIHandler struct {
	doc *openapi3.T
}

func NewOpenAPIHandler(baseURL, version string) *OpenAPIHandler {
	return &OpenAPIHandler{doc: openapi.Document(baseURL, version)}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doc)
}
