package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/mock/gomock"

	"docsearch/internal/chunker"
	embeddings_mocks "docsearch/internal/embeddings/mocks"
	"docsearch/internal/extract"
	"docsearch/internal/storage"
	vectorstore_mocks "docsearch/internal/vectorstore/mocks"
)

// newStorePipeline wires the pipeline to a real SQLite database and mocked
// embedding and vector services.
func newStorePipeline(t *testing.T) (*Pipeline, *storage.DocumentRepo, *storage.ChunkRepo, *embeddings_mocks.MockEmbedder, *vectorstore_mocks.MockVectorStore) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	ctrl := gomock.NewController(t)
	documents := storage.NewDocumentRepo(db)
	chunks := storage.NewChunkRepo(db)
	embedder := embeddings_mocks.NewMockEmbedder(ctrl)
	vectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)

	n := 0
	p := NewPipeline(
		chunker.New(chunker.Config{ChunkSize: 500, ChunkOverlap: 50}),
		extract.NewRegistry(),
		documents,
		chunks,
		embedder,
		vectorStore,
		"test-collection",
	).WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("point-%d", n)
	})

	return p, documents, chunks, embedder, vectorStore
}

func TestPipeline_IndexDocument_VectorFailureLeavesNoRows(t *testing.T) {
	p, documents, chunks, embedder, vectorStore := newStorePipeline(t)
	ctx := context.Background()

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor)
	vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(errors.New("qdrant unavailable"))

	if _, err := p.IndexDocument(ctx, "r.txt", structuredText); err == nil {
		t.Fatal("IndexDocument() expected error, got nil")
	}

	if n, err := chunks.Count(ctx); err != nil || n != 0 {
		t.Errorf("chunks Count() = %d, %v, want 0", n, err)
	}
	if n, err := documents.Count(ctx); err != nil || n != 0 {
		t.Errorf("documents Count() = %d, %v, want 0", n, err)
	}
	if _, err := documents.GetByFilename(ctx, "r.txt"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByFilename() error = %v, want ErrNotFound", err)
	}
}

func TestPipeline_IndexDocument_FailedReplaceKeepsPreviousVersion(t *testing.T) {
	p, documents, chunks, embedder, vectorStore := newStorePipeline(t)
	ctx := context.Background()

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor).Times(2)
	gomock.InOrder(
		vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(2)).Return(nil),
		vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(errors.New("qdrant unavailable")),
	)

	first, err := p.IndexDocument(ctx, "r.txt", structuredText)
	if err != nil {
		t.Fatalf("IndexDocument() first upload error = %v", err)
	}
	before, err := documents.GetByFilename(ctx, "r.txt")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}

	if _, err := p.IndexDocument(ctx, "r.txt", "1. Replaced\nNew body.\n\n2. Extra\nMore.\n\n3. Third\nEven more."); err == nil {
		t.Fatal("IndexDocument() second upload expected error, got nil")
	}

	after, err := documents.GetByFilename(ctx, "r.txt")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if after.ID != before.ID || after.Hash != before.Hash || after.ChunkCount != 2 {
		t.Errorf("document = %+v, want unchanged %+v", after, before)
	}

	ids, err := chunks.ListIDsByDocument(ctx, after.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if !slices.Equal(ids, first.ChunkIDs) {
		t.Errorf("ListIDsByDocument() = %v, want %v", ids, first.ChunkIDs)
	}
}

func TestPipeline_IndexDocument_ReplaceDeletesOldPoints(t *testing.T) {
	p, _, chunks, embedder, vectorStore := newStorePipeline(t)
	ctx := context.Background()

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor).Times(2)
	vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).Return(nil).Times(2)
	vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", []string{"point-1", "point-2"}).Return(nil)

	if _, err := p.IndexDocument(ctx, "r.txt", structuredText); err != nil {
		t.Fatalf("IndexDocument() first upload error = %v", err)
	}
	second, err := p.IndexDocument(ctx, "r.txt", structuredText)
	if err != nil {
		t.Fatalf("IndexDocument() second upload error = %v", err)
	}

	got, err := p.DocumentChunks(ctx, "r.txt")
	if err != nil {
		t.Fatalf("DocumentChunks() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != second.ChunkIDs[0] || got[0].Header != "1. Introduction" {
		t.Errorf("DocumentChunks() = %+v, want the second upload's chunks", got)
	}
	if n, err := chunks.Count(ctx); err != nil || n != 2 {
		t.Errorf("chunks Count() = %d, %v, want 2", n, err)
	}
}
