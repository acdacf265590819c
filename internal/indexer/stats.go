package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"docsearch/internal/chunker"
	"docsearch/internal/storage"
)

// Status summarizes what is currently indexed.
type Status struct {
	// TotalChunks is the number of points in the vector collection.
	TotalChunks int `json:"total_chunks"`
	// StoredChunks is the number of chunk rows in SQLite. It differs from
	// TotalChunks only after a partial failure.
	StoredChunks int `json:"stored_chunks"`
	// TotalDocuments is the number of registered documents.
	TotalDocuments int `json:"total_documents"`
	// Filenames lists the registered documents in sorted order.
	Filenames []string `json:"available_files"`
	// ChunkerVersion is the version of the chunker in use.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion identifies the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
}

// Status queries both stores for the current index contents.
func (p *Pipeline) Status(ctx context.Context, embeddingModel string) (*Status, error) {
	total, err := p.vectorStore.Count(ctx, p.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors: %w", err)
	}

	stored, err := p.chunks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	documents, err := p.documents.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	filenames, err := p.documents.ListFilenames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return &Status{
		TotalChunks:    total,
		StoredChunks:   stored,
		TotalDocuments: documents,
		Filenames:      filenames,
		ChunkerVersion: chunker.Version,
		IndexVersion:   IndexVersion(embeddingModel, p.chunker.Config()),
	}, nil
}

// ListDocuments returns every registered document ordered by filename.
func (p *Pipeline) ListDocuments(ctx context.Context) ([]*storage.DocumentRecord, error) {
	docs, err := p.documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// DocumentChunks returns the stored chunks of filename ordered by chunk index.
func (p *Pipeline) DocumentChunks(ctx context.Context, filename string) ([]*storage.ChunkRecord, error) {
	doc, err := p.documents.GetByFilename(ctx, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	chunks, err := p.chunks.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if chunks == nil {
		chunks = []*storage.ChunkRecord{}
	}
	return chunks, nil
}

// IndexVersion hashes the settings that determine chunk boundaries and vectors.
// Two indexes with the same version were built compatibly.
func IndexVersion(embeddingModel string, cfg chunker.Config) string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|chunkOverlap=%d",
		chunker.Version, embeddingModel, cfg.ChunkSize, cfg.ChunkOverlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}
