package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"docsearch/internal/service"
)

// DocumentResponse describes one indexed document.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentsResponse lists indexed documents.
//
// swagger:model DocumentsResponse
type DocumentsResponse struct {
	TotalDocuments int                `json:"total_documents"`
	Documents      []DocumentResponse `json:"documents"`
}

// DeleteResponse reports a document deletion.
//
// swagger:model DeleteResponse
type DeleteResponse struct {
	Message       string `json:"message"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

// ChunkResponse is one stored chunk of a document.
//
// swagger:model ChunkResponse
type ChunkResponse struct {
	ID          string `json:"id"`
	ChunkIndex  int    `json:"chunk_index"`
	Header      string `json:"header,omitempty"`
	HeaderLevel int    `json:"header_level,omitempty"`
	IsPartial   bool   `json:"is_partial"`
	ChunkType   string `json:"chunk_type,omitempty"`
	Text        string `json:"text"`
}

// DocumentChunksResponse lists the chunks a document was split into.
//
// swagger:model DocumentChunksResponse
type DocumentChunksResponse struct {
	Filename    string          `json:"filename"`
	TotalChunks int             `json:"total_chunks"`
	Chunks      []ChunkResponse `json:"chunks"`
}

// DocumentsHandler lists and deletes indexed documents.
type DocumentsHandler struct {
	indexer Indexer
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(indexer Indexer) *DocumentsHandler {
	return &DocumentsHandler{indexer: indexer}
}

// List handles GET /api/documents.
//
// swagger:route GET /api/documents listDocuments
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Indexed documents ordered by filename
//	  schema:
//	    "$ref": "#/definitions/DocumentsResponse"
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.indexer.ListDocuments(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := DocumentsResponse{
		TotalDocuments: len(docs),
		Documents:      make([]DocumentResponse, 0, len(docs)),
	}
	for _, doc := range docs {
		response.Documents = append(response.Documents, DocumentResponse{
			ID:         doc.ID,
			Filename:   doc.Filename,
			ChunkCount: doc.ChunkCount,
			CreatedAt:  doc.CreatedAt,
		})
	}

	writeJSON(ctx, w, http.StatusOK, response)
}

// Delete handles DELETE /api/documents/{filename}.
//
// swagger:route DELETE /api/documents/{filename} deleteDocument
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Document and its chunks removed
//	  schema:
//	    "$ref": "#/definitions/DeleteResponse"
//	'404':
//	  description: No document with that filename
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename, err := filenameParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	deleted, err := h.indexer.DeleteDocument(ctx, filename)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, DeleteResponse{
		Message:       fmt.Sprintf("Deleted %s", filename),
		ChunksDeleted: deleted,
	})
}

// Chunks handles GET /api/documents/{filename}/chunks.
//
// swagger:route GET /api/documents/{filename}/chunks documentChunks
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Stored chunks ordered by chunk index
//	  schema:
//	    "$ref": "#/definitions/DocumentChunksResponse"
//	'404':
//	  description: No document with that filename
func (h *DocumentsHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename, err := filenameParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	chunks, err := h.indexer.DocumentChunks(ctx, filename)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := DocumentChunksResponse{
		Filename:    filename,
		TotalChunks: len(chunks),
		Chunks:      make([]ChunkResponse, 0, len(chunks)),
	}
	for _, chunk := range chunks {
		response.Chunks = append(response.Chunks, ChunkResponse{
			ID:          chunk.ID,
			ChunkIndex:  chunk.ChunkIndex,
			Header:      chunk.Header,
			HeaderLevel: chunk.HeaderLevel,
			IsPartial:   chunk.IsPartial,
			ChunkType:   chunk.ChunkType,
			Text:        chunk.Text,
		})
	}

	writeJSON(ctx, w, http.StatusOK, response)
}

// filenameParam reads the {filename} route parameter. chi leaves escaped
// paths undecoded, so RawPath signals that the value needs unescaping.
func filenameParam(r *http.Request) (string, error) {
	filename := chi.URLParam(r, "filename")
	var err error
	if r.URL.RawPath != "" {
		filename, err = url.PathUnescape(filename)
	}
	if err != nil || filename == "" {
		return "", &service.ValidationError{Field: "filename", Message: "invalid filename"}
	}
	return filename, nil
}
