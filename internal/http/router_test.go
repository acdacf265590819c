package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docsearch/internal/indexer"
	"docsearch/internal/search"
	"docsearch/internal/storage"
)

type stubIndexer struct{}

func (stubIndexer) ProcessUpload(context.Context, string, []byte) (*indexer.IndexResult, error) {
	return &indexer.IndexResult{}, nil
}

func (stubIndexer) DeleteDocument(context.Context, string) (int, error) {
	return 0, indexer.ErrDocumentNotFound
}

func (stubIndexer) ListDocuments(context.Context) ([]*storage.DocumentRecord, error) {
	return nil, nil
}

func (stubIndexer) DocumentChunks(context.Context, string) ([]*storage.ChunkRecord, error) {
	return nil, indexer.ErrDocumentNotFound
}

func (stubIndexer) Status(context.Context, string) (*indexer.Status, error) {
	return &indexer.Status{}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, search.Query) ([]search.Result, error) {
	return []search.Result{}, nil
}

func newTestRouter() http.Handler {
	return NewRouter(&Deps{
		Indexer:        stubIndexer{},
		Searcher:       stubSearcher{},
		EmbeddingModel: "test-model",
		ChunkSize:      500,
		UploadMaxBytes: 1 << 20,
		Version:        "test",
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET root", http.MethodGet, "/", http.StatusOK},
		{"POST upload without body", http.MethodPost, "/api/upload", http.StatusBadRequest},
		{"GET upload not allowed", http.MethodGet, "/api/upload", http.StatusMethodNotAllowed},
		{"GET search", http.MethodGet, "/api/search?query=hello", http.StatusOK},
		{"GET health", http.MethodGet, "/api/health", http.StatusOK},
		{"GET documents", http.MethodGet, "/api/documents", http.StatusOK},
		{"DELETE unknown document", http.MethodDelete, "/api/documents/missing.pdf", http.StatusNotFound},
		{"GET chunks of unknown document", http.MethodGet, "/api/documents/missing.pdf/chunks", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_RootDescribesAPI(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode root response: %v", err)
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
	if _, ok := body["endpoints"].(map[string]any); !ok {
		t.Errorf("endpoints missing from root response: %v", body)
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	newTestRouter().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}
