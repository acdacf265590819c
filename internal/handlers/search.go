package handlers

import (
	"net/http"
	"strconv"

	"docsearch/internal/search"
	"docsearch/internal/service"
)

// SearchHandler handles semantic search queries.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// SearchResponse represents the search results for a query.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []search.Result `json:"results"`
	TotalResults int             `json:"total_results"`
}

// ServeHTTP handles GET /api/search.
//
// swagger:route GET /api/search searchDocuments
//
// # Semantic search over indexed chunks
//
// Query parameters: query (required), top_k (1-100, default 5), filename
// (restrict to one document) and rerank (blend in lexical matching).
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Matching chunks, best first
//	  schema:
//	    "$ref": "#/definitions/SearchResponse"
//	'400':
//	  description: Invalid query or top_k
//	'502':
//	  description: Embedding or vector service unavailable
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	q := search.Query{
		Text:     params.Get("query"),
		Filename: params.Get("filename"),
	}

	if raw := params.Get("top_k"); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, &service.ValidationError{Field: "top_k", Message: "top_k must be an integer"})
			return
		}
		if topK == 0 {
			writeError(ctx, w, &service.ValidationError{Field: "top_k", Message: "top_k must be at least 1"})
			return
		}
		q.TopK = topK
	}

	if raw := params.Get("rerank"); raw != "" {
		rerank, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, &service.ValidationError{Field: "rerank", Message: "rerank must be a boolean"})
			return
		}
		q.Rerank = rerank
	}

	results, err := h.searcher.Search(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Query:        q.Text,
		Results:      results,
		TotalResults: len(results),
	})
}
