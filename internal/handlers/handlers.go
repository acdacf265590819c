package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"docsearch/internal/contextutil"
	"docsearch/internal/extract"
	"docsearch/internal/indexer"
	"docsearch/internal/search"
	"docsearch/internal/service"
	"docsearch/internal/storage"
)

// Indexer is the part of the indexing pipeline the HTTP layer depends on.
type Indexer interface {
	ProcessUpload(ctx context.Context, filename string, content []byte) (*indexer.IndexResult, error)
	DeleteDocument(ctx context.Context, filename string) (int, error)
	ListDocuments(ctx context.Context) ([]*storage.DocumentRecord, error)
	DocumentChunks(ctx context.Context, filename string) ([]*storage.ChunkRecord, error)
	Status(ctx context.Context, embeddingModel string) (*indexer.Status, error)
}

// Searcher answers semantic search queries.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Short description of the failure class
	Error string `json:"error"`

	// Human-readable detail
	Detail string `json:"detail,omitempty"`
}

// classify tags pipeline errors with the service error they surface as.
func classify(err error) error {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		return fmt.Errorf("%w: %w", service.ErrUnsupportedMedia, err)
	case errors.Is(err, extract.ErrNoText), errors.Is(err, indexer.ErrNoChunks):
		return fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	case errors.Is(err, indexer.ErrDocumentNotFound):
		return fmt.Errorf("%w: %w", service.ErrNotFound, err)
	default:
		return err
	}
}

// writeError maps err to a status code and writes it as an ErrorResponse.
// Internal errors are logged and their detail withheld from the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	err = classify(err)
	status := service.StatusCode(err)
	detail := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		logger.ErrorContext(ctx, "request failed", "error", err)
		detail = "internal server error"
	case status >= 500:
		logger.ErrorContext(ctx, "upstream service failed", "error", err)
	default:
		logger.WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	writeJSON(ctx, w, status, ErrorResponse{
		Error:  http.StatusText(status),
		Detail: detail,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
