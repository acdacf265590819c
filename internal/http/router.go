package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docsearch/internal/handlers"
)

const healthPath = "/api/health"

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Indexer        handlers.Indexer
	Searcher       handlers.Searcher
	EmbeddingModel string
	ChunkSize      int
	UploadMaxBytes int64
	Version        string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	documents := handlers.NewDocumentsHandler(deps.Indexer)

	r.Method(http.MethodGet, "/", handlers.NewRootHandler(deps.Version))
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(deps.Indexer, deps.UploadMaxBytes))
		r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.Searcher))
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Indexer, deps.EmbeddingModel, deps.ChunkSize))
		r.Get("/documents", documents.List)
		r.Delete("/documents/{filename}", documents.Delete)
		r.Get("/documents/{filename}/chunks", documents.Chunks)
	})

	return r
}
