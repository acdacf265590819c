package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"docsearch/internal/contextutil"
	"docsearch/internal/service"
)

// UploadHandler handles document uploads.
type UploadHandler struct {
	indexer  Indexer
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler accepting bodies up to maxBytes.
func NewUploadHandler(indexer Indexer, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		indexer:  indexer,
		maxBytes: maxBytes,
	}
}

// UploadResponse represents the result of indexing an uploaded document.
//
// swagger:model UploadResponse
type UploadResponse struct {
	Message       string   `json:"message"`
	Filename      string   `json:"filename"`
	ChunksCreated int      `json:"chunks_created"`
	DocumentIDs   []string `json:"document_ids"`
}

// ServeHTTP handles POST /api/upload.
//
// swagger:route POST /api/upload uploadDocument
//
// # Upload and index a document
//
// Accepts a multipart form with a single "file" field. The document is
// extracted, chunked by section headers, embedded and stored. Uploading a
// filename that is already indexed replaces its chunks.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Document indexed
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Missing file or no text could be extracted
//	'413':
//	  description: Upload exceeds the configured limit
//	'415':
//	  description: Unsupported file type
//	'502':
//	  description: Embedding or vector service unavailable
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	tooLarge := fmt.Errorf("%w: upload exceeds %d bytes", service.ErrTooLarge, h.maxBytes)
	if r.ContentLength > h.maxBytes {
		writeError(ctx, w, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(ctx, w, tooLarge)
			return
		}
		writeError(ctx, w, &service.ValidationError{Field: "file", Message: "a multipart file field named \"file\" is required"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		writeError(ctx, w, &service.ValidationError{Field: "file", Message: "filename is required"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	logger.InfoContext(ctx, "processing upload", "filename", filename, "bytes", len(content))

	result, err := h.indexer.ProcessUpload(ctx, filename, content)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Message:       fmt.Sprintf("Successfully processed %s", filename),
		Filename:      result.Filename,
		ChunksCreated: len(result.ChunkIDs),
		DocumentIDs:   result.ChunkIDs,
	})
}
