package handlers

import "net/http"

// RootResponse describes the API.
//
// swagger:model RootResponse
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// RootHandler serves API information at /.
type RootHandler struct {
	version string
}

// NewRootHandler creates a new RootHandler.
func NewRootHandler(version string) *RootHandler {
	return &RootHandler{version: version}
}

// ServeHTTP handles GET /.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, RootResponse{
		Message: "Document Search API",
		Version: h.version,
		Endpoints: map[string]string{
			"upload":    "POST /api/upload",
			"search":    "GET /api/search?query=...&top_k=10",
			"health":    "GET /api/health",
			"documents": "GET /api/documents",
			"delete":    "DELETE /api/documents/{filename}",
			"chunks":    "GET /api/documents/{filename}/chunks",
		},
	})
}
