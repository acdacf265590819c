package handlers

import (
	"context"
	"net/http"
	"time"

	"docsearch/internal/contextutil"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	indexer            Indexer
	embeddingModel     string
	chunkSize          int
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(indexer Indexer, embeddingModel string, chunkSize int) *HealthHandler {
	return &HealthHandler{
		indexer:            indexer,
		embeddingModel:     embeddingModel,
		chunkSize:          chunkSize,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	EmbeddingModel string   `json:"embedding_model"`
	ChunkSize      int      `json:"chunk_size"`
	TotalChunks    int      `json:"total_chunks"`
	TotalDocuments int      `json:"total_documents"`
	AvailableFiles []string `json:"available_files"`
	ChunkerVersion string   `json:"chunker_version,omitempty"`
	IndexVersion   string   `json:"index_version,omitempty"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
//
// Returns 200 OK with index statistics when the stores are reachable,
// 503 Service Unavailable otherwise.
//
// swagger:route GET /api/health healthCheck
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		EmbeddingModel: h.embeddingModel,
		ChunkSize:      h.chunkSize,
		AvailableFiles: []string{},
	}

	status, err := h.indexer.Status(checkCtx, h.embeddingModel)
	if err != nil {
		logger.WarnContext(ctx, "health check failed", "error", err)
		response.Status = "unhealthy"
		response.Issues = []string{"index_unavailable"}
		writeJSON(ctx, w, http.StatusServiceUnavailable, response)
		return
	}

	response.TotalChunks = status.TotalChunks
	response.TotalDocuments = status.TotalDocuments
	if status.Filenames != nil {
		response.AvailableFiles = status.Filenames
	}
	response.ChunkerVersion = status.ChunkerVersion
	response.IndexVersion = status.IndexVersion
	if status.StoredChunks != status.TotalChunks {
		logger.WarnContext(ctx, "chunk counts differ between stores",
			"vector_store", status.TotalChunks, "registry", status.StoredChunks)
	}

	writeJSON(ctx, w, http.StatusOK, response)
}
