package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"docsearch/internal/chunker"
	"docsearch/internal/contextutil"
	"docsearch/internal/embeddings"
	"docsearch/internal/extract"
	"docsearch/internal/service"
	"docsearch/internal/storage"
	"docsearch/internal/vectorstore"
)

var (
	// ErrNoChunks is returned when a document produces no non-empty chunks.
	ErrNoChunks = errors.New("no chunks could be created from document")
	// ErrDocumentNotFound is returned when deleting a filename that was never indexed.
	ErrDocumentNotFound = errors.New("document not found")
)

// IndexResult describes a successfully indexed document.
type IndexResult struct {
	Filename   string
	DocumentID string
	ChunkIDs   []string
	Stats      chunker.Stats
}

// Pipeline orchestrates extraction, chunking, embedding and storage of uploaded documents.
type Pipeline struct {
	chunker     *chunker.Chunker
	extractor   extract.Extractor
	documents   storage.DocumentStore
	chunks      storage.ChunkStore
	embedder    embeddings.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	newID       vectorstore.IDGenerator

	// mu serializes the write phase so concurrent uploads of the same
	// filename cannot interleave their replacements.
	mu sync.Mutex
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	ch *chunker.Chunker,
	extractor extract.Extractor,
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	embedder embeddings.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
) *Pipeline {
	return &Pipeline{
		chunker:     ch,
		extractor:   extractor,
		documents:   documents,
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		newID:       vectorstore.NewID,
	}
}

// WithIDGenerator replaces the point ID generator.
func (p *Pipeline) WithIDGenerator(gen vectorstore.IDGenerator) *Pipeline {
	p.newID = gen
	return p
}

// ProcessUpload extracts text from an uploaded file and indexes it.
func (p *Pipeline) ProcessUpload(ctx context.Context, filename string, content []byte) (*IndexResult, error) {
	text, err := p.extractor.Extract(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return p.IndexDocument(ctx, filename, text)
}

// IndexDocument chunks text, embeds every chunk and stores the chunks in SQLite and
// the vector store. Previously indexed chunks for the same filename are replaced
// only once the new version is stored in both; on failure the previous version
// stays searchable.
func (p *Pipeline) IndexDocument(ctx context.Context, filename, text string) (*IndexResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks := p.chunker.Chunk(text, filename)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	stats := chunker.ComputeStats(chunks)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate embeddings: %w", service.ErrExternalService, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(vectors))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.documents.GetByFilename(ctx, filename)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	var oldIDs []string
	if existing != nil {
		oldIDs, err = p.chunks.ListIDsByDocument(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list previous chunks: %w", err)
		}
	}

	records := make([]*storage.ChunkRecord, len(chunks))
	points := make([]vectorstore.Point, len(chunks))
	ids := make([]string, len(chunks))

	for i, chunk := range chunks {
		id := p.newID()
		ids[i] = id

		records[i] = &storage.ChunkRecord{
			ID:          id,
			ChunkIndex:  chunk.Index,
			Header:      chunk.Header,
			HeaderLevel: chunk.HeaderLevel,
			IsPartial:   chunk.IsPartial,
			ChunkType:   chunk.ChunkType,
			Text:        chunk.Text,
		}

		points[i] = vectorstore.Point{
			ID:   id,
			Vec:  vectors[i],
			Meta: pointMetadata(chunk),
		}
	}

	// New points go in first. Until SQLite commits, the previous version stays
	// fully indexed and the new points are removed on any failure.
	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return nil, fmt.Errorf("%w: failed to upsert vectors: %w", service.ErrExternalService, err)
	}

	doc := &storage.DocumentRecord{
		Filename:   filename,
		Hash:       fmt.Sprintf("%x", sha256.Sum256([]byte(text))),
		ChunkCount: len(chunks),
	}
	if err := p.documents.Upsert(ctx, doc); err != nil {
		p.discardPoints(ctx, ids)
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}
	for _, record := range records {
		record.DocumentID = doc.ID
	}
	if err := p.chunks.ReplaceByDocument(ctx, doc.ID, records); err != nil {
		p.discardPoints(ctx, ids)
		p.restoreDocument(ctx, filename, existing)
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	if len(oldIDs) > 0 {
		if err := p.vectorStore.Delete(ctx, p.collection, oldIDs); err != nil {
			logger.ErrorContext(ctx, "failed to delete previous vectors", "filename", filename, "points", len(oldIDs), "error", err)
		} else {
			logger.InfoContext(ctx, "replaced previously indexed document", "filename", filename, "old_chunks", len(oldIDs))
		}
	}

	logger.InfoContext(ctx, "indexed document",
		"filename", filename,
		"chunks", stats.Chunks,
		"header_chunks", stats.HeaderChunks,
		"partial_chunks", stats.PartialChunks,
		"paragraph_groups", stats.ParagraphGroups,
		"max_len", stats.Length.Max,
	)

	return &IndexResult{
		Filename:   filename,
		DocumentID: doc.ID,
		ChunkIDs:   ids,
		Stats:      stats,
	}, nil
}

// discardPoints removes points written by a failed IndexDocument call.
func (p *Pipeline) discardPoints(ctx context.Context, ids []string) {
	if err := p.vectorStore.Delete(ctx, p.collection, ids); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to discard new vectors", "points", len(ids), "error", err)
	}
}

// restoreDocument puts the registry row back the way it was before a failed
// IndexDocument call: the previous record is rewritten, a new one is removed.
func (p *Pipeline) restoreDocument(ctx context.Context, filename string, previous *storage.DocumentRecord) {
	var err error
	if previous != nil {
		err = p.documents.Upsert(ctx, previous)
	} else {
		err = p.documents.DeleteByFilename(ctx, filename)
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to restore document record", "filename", filename, "error", err)
	}
}

// pointMetadata builds the payload stored with a chunk's vector.
// Header chunks carry header fields; paragraph groups carry only chunk_type.
func pointMetadata(chunk chunker.Chunk) map[string]any {
	meta := map[string]any{
		vectorstore.FieldFilename:   chunk.Filename,
		vectorstore.FieldChunkIndex: chunk.Index,
		vectorstore.FieldText:       chunk.Text,
	}
	if chunk.ChunkType != "" {
		meta[vectorstore.FieldChunkType] = chunk.ChunkType
		return meta
	}
	if chunk.HasHeader() {
		meta[vectorstore.FieldHeader] = chunk.Header
		meta[vectorstore.FieldHeaderLevel] = chunk.HeaderLevel
		meta[vectorstore.FieldIsPartial] = chunk.IsPartial
	}
	return meta
}

// DeleteDocument removes every chunk of filename from both stores.
// Returns the number of chunks deleted.
func (p *Pipeline) DeleteDocument(ctx context.Context, filename string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.documents.GetByFilename(ctx, filename)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrDocumentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up document: %w", err)
	}

	if err := p.vectorStore.DeleteByFilename(ctx, p.collection, filename); err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := p.documents.DeleteByFilename(ctx, filename); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}

	logger.InfoContext(ctx, "deleted document", "filename", filename, "chunks", doc.ChunkCount)
	return doc.ChunkCount, nil
}
