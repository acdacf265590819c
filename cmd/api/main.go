package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docsearch/internal/chunker"
	"docsearch/internal/config"
	"docsearch/internal/embeddings"
	"docsearch/internal/extract"
	"docsearch/internal/http"
	"docsearch/internal/indexer"
	"docsearch/internal/ingest"
	"docsearch/internal/search"
	"docsearch/internal/storage"
	"docsearch/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API indexes uploaded documents into header-aligned chunks and serves semantic search over them.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Document Search API
//   description: |
//     Upload PDF, Word, OpenDocument, Markdown or plain text files. Each document is split into
//     chunks along its section headers, embedded and stored for semantic search.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// produces:
//   - application/json

const version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	documentRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = vectorStore.Close()
	}()

	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingDimension); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingDimension)

	embedder, err := embeddings.NewClient(embeddings.Options{
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimension:  cfg.EmbeddingDimension,
		MaxRetries: cfg.EmbeddingMaxRetries,
		RetryDelay: cfg.EmbeddingRetryDelay,
	})
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	// Validate embedding client vector size (fail-fast)
	if _, err := embedder.EmbedText(ctx, "test"); err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "model", embedder.Model(), "vector_size", cfg.EmbeddingDimension)

	ch := chunker.New(cfg.Chunker())
	extractors := extract.NewRegistry()
	pipeline := indexer.NewPipeline(
		ch,
		extractors,
		documentRepo,
		chunkRepo,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
	)
	engine := search.NewEngine(embedder, vectorStore, cfg.QdrantCollection)
	slog.Info("Indexing pipeline ready",
		"chunker_version", chunker.Version,
		"index_version", indexer.IndexVersion(cfg.EmbeddingModel, ch.Config()),
		"chunk_size", cfg.ChunkSize,
	)

	router := http.NewRouter(&http.Deps{
		Indexer:        pipeline,
		Searcher:       engine,
		EmbeddingModel: cfg.EmbeddingModel,
		ChunkSize:      cfg.ChunkSize,
		UploadMaxBytes: cfg.UploadMaxBytes,
		Version:        version,
	})

	// Index the ingest directory in background after the router is ready
	if cfg.IngestDir != "" {
		ingester := ingest.New(pipeline, extractors.Supported, cfg.UploadMaxBytes)
		go func() {
			slog.Info("Starting background indexing", "dir", cfg.IngestDir)
			if _, err := ingester.IndexDirectory(ctx, cfg.IngestDir); err != nil {
				slog.Error("Indexing completed with errors", "error", err)
			} else {
				slog.Info("Indexing completed successfully")
			}
		}()
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Debug("Embedding configuration", "base_url", cfg.EmbeddingBaseURL, "model", cfg.EmbeddingModel)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
	slog.Info("API server stopped")
}
