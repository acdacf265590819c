package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docsearch/internal/vectorstore VectorStore

import (
	"context"

	"github.com/google/uuid"
)

// Payload keys stored with every chunk point.
const (
	FieldFilename    = "filename"
	FieldChunkIndex  = "chunk_index"
	FieldText        = "text"
	FieldHeader      = "header"
	FieldHeaderLevel = "header_level"
	FieldIsPartial   = "is_partial"
	FieldChunkType   = "chunk_type"
)

// IDGenerator produces point identifiers.
// Qdrant only accepts UUIDs and unsigned integers as point IDs.
type IDGenerator func() string

// NewID returns a random UUID.
func NewID() string {
	return uuid.NewString()
}

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with optional filters.
	// Supported filter keys are FieldFilename, FieldHeaderLevel and FieldChunkType.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteByFilename removes every point whose filename payload matches.
	DeleteByFilename(ctx context.Context, collection string, filename string) error

	// Count returns the exact number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)
}
