package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"docsearch/internal/chunker"
	embeddings_mocks "docsearch/internal/embeddings/mocks"
	"docsearch/internal/extract"
	"docsearch/internal/service"
	"docsearch/internal/storage"
	storage_mocks "docsearch/internal/storage/mocks"
	"docsearch/internal/vectorstore"
	vectorstore_mocks "docsearch/internal/vectorstore/mocks"
)

const structuredText = "1. Introduction\nHello world.\n\n2. Details\nMore text."

type pipelineMocks struct {
	documents   *storage_mocks.MockDocumentStore
	chunks      *storage_mocks.MockChunkStore
	embedder    *embeddings_mocks.MockEmbedder
	vectorStore *vectorstore_mocks.MockVectorStore
}

func newTestPipeline(t *testing.T) (*Pipeline, pipelineMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := pipelineMocks{
		documents:   storage_mocks.NewMockDocumentStore(ctrl),
		chunks:      storage_mocks.NewMockChunkStore(ctrl),
		embedder:    embeddings_mocks.NewMockEmbedder(ctrl),
		vectorStore: vectorstore_mocks.NewMockVectorStore(ctrl),
	}

	n := 0
	p := NewPipeline(
		chunker.New(chunker.Config{ChunkSize: 500, ChunkOverlap: 50}),
		extract.NewRegistry(),
		m.documents,
		m.chunks,
		m.embedder,
		m.vectorStore,
		"test-collection",
	).WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})

	return p, m
}

// vectorsFor returns one small vector per text.
func vectorsFor(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{float32(i), 1}
	}
	return vecs, nil
}

func TestPipeline_IndexDocument_NewDocument(t *testing.T) {
	p, m := newTestPipeline(t)
	ctx := context.Background()

	m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Len(2)).DoAndReturn(vectorsFor)
	m.documents.EXPECT().GetByFilename(gomock.Any(), "report.txt").Return(nil, storage.ErrNotFound)
	m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, doc *storage.DocumentRecord) error {
			if doc.Filename != "report.txt" || doc.ChunkCount != 2 || len(doc.Hash) != 64 {
				t.Errorf("Upsert() doc = %+v", doc)
			}
			doc.ID = "doc-1"
			return nil
		})
	m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), "doc-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, records []*storage.ChunkRecord) error {
			if len(records) != 2 {
				t.Fatalf("ReplaceByDocument() got %d records, want 2", len(records))
			}
			first := records[0]
			if first.ID != "id-1" || first.DocumentID != "doc-1" || first.ChunkIndex != 0 {
				t.Errorf("records[0] = %+v", first)
			}
			if first.Header != "1. Introduction" || first.HeaderLevel != 1 || first.ChunkType != "" {
				t.Errorf("records[0] header fields = %+v", first)
			}
			if records[1].Header != "2. Details" || records[1].ChunkIndex != 1 {
				t.Errorf("records[1] = %+v", records[1])
			}
			return nil
		})
	m.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, points []vectorstore.Point) error {
			if len(points) != 2 {
				t.Fatalf("Upsert() got %d points, want 2", len(points))
			}
			meta := points[0].Meta
			if points[0].ID != "id-1" || meta[vectorstore.FieldFilename] != "report.txt" {
				t.Errorf("points[0] = %+v", points[0])
			}
			if meta[vectorstore.FieldHeader] != "1. Introduction" || meta[vectorstore.FieldHeaderLevel] != 1 {
				t.Errorf("points[0] header meta = %v", meta)
			}
			if meta[vectorstore.FieldIsPartial] != false {
				t.Errorf("points[0] is_partial = %v, want false", meta[vectorstore.FieldIsPartial])
			}
			if _, ok := meta[vectorstore.FieldChunkType]; ok {
				t.Error("header chunk should not carry chunk_type")
			}
			if !strings.HasPrefix(meta[vectorstore.FieldText].(string), "1. Introduction") {
				t.Errorf("points[0] text = %v", meta[vectorstore.FieldText])
			}
			return nil
		})

	result, err := p.IndexDocument(ctx, "report.txt", structuredText)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if result.DocumentID != "doc-1" {
		t.Errorf("DocumentID = %s, want doc-1", result.DocumentID)
	}
	if len(result.ChunkIDs) != 2 || result.ChunkIDs[0] != "id-1" || result.ChunkIDs[1] != "id-2" {
		t.Errorf("ChunkIDs = %v, want [id-1 id-2]", result.ChunkIDs)
	}
	if result.Stats.HeaderChunks != 2 {
		t.Errorf("Stats.HeaderChunks = %d, want 2", result.Stats.HeaderChunks)
	}
}

func TestPipeline_IndexDocument_ReplacesExisting(t *testing.T) {
	p, m := newTestPipeline(t)

	existing := &storage.DocumentRecord{ID: "doc-1", Filename: "report.txt", ChunkCount: 3}

	m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor)
	gomock.InOrder(
		m.documents.EXPECT().GetByFilename(gomock.Any(), "report.txt").Return(existing, nil),
		m.chunks.EXPECT().ListIDsByDocument(gomock.Any(), "doc-1").Return([]string{"old-1", "old-2", "old-3"}, nil),
		m.vectorStore.EXPECT().Upsert(gomock.Any(), "test-collection", gomock.Len(2)).Return(nil),
		m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, doc *storage.DocumentRecord) error {
				doc.ID = "doc-1"
				return nil
			}),
		m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), "doc-1", gomock.Len(2)).Return(nil),
		m.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", []string{"old-1", "old-2", "old-3"}).Return(nil),
	)

	if _, err := p.IndexDocument(context.Background(), "report.txt", structuredText); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
}

func TestPipeline_IndexDocument_StaleVectorCleanupFailureIsNotFatal(t *testing.T) {
	p, m := newTestPipeline(t)

	m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor)
	m.documents.EXPECT().GetByFilename(gomock.Any(), "report.txt").Return(&storage.DocumentRecord{ID: "doc-1", Filename: "report.txt"}, nil)
	m.chunks.EXPECT().ListIDsByDocument(gomock.Any(), "doc-1").Return([]string{"old-1"}, nil)
	m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", []string{"old-1"}).Return(errors.New("timeout"))

	result, err := p.IndexDocument(context.Background(), "report.txt", structuredText)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if len(result.ChunkIDs) != 2 {
		t.Errorf("ChunkIDs = %v, want 2 new chunks", result.ChunkIDs)
	}
}

func TestPipeline_IndexDocument_RollsBack(t *testing.T) {
	tests := []struct {
		name     string
		existing *storage.DocumentRecord
		setup    func(m pipelineMocks)
		wantErr  error
	}{
		{
			name: "vector upsert failure writes nothing to SQLite",
			setup: func(m pipelineMocks) {
				m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("qdrant unavailable"))
			},
			wantErr: service.ErrExternalService,
		},
		{
			name:     "vector upsert failure keeps previous version",
			existing: &storage.DocumentRecord{ID: "doc-1", Filename: "doc.txt", Hash: "old", ChunkCount: 1},
			setup: func(m pipelineMocks) {
				m.chunks.EXPECT().ListIDsByDocument(gomock.Any(), "doc-1").Return([]string{"old-1"}, nil)
				m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("qdrant unavailable"))
			},
			wantErr: service.ErrExternalService,
		},
		{
			name: "document upsert failure discards new points",
			setup: func(m pipelineMocks) {
				m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
				m.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", []string{"id-1", "id-2"}).Return(nil)
			},
		},
		{
			name: "chunk write failure removes new document",
			setup: func(m pipelineMocks) {
				m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, doc *storage.DocumentRecord) error {
						doc.ID = "doc-new"
						return nil
					})
				m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), "doc-new", gomock.Any()).Return(errors.New("disk full"))
				m.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", []string{"id-1", "id-2"}).Return(nil)
				m.documents.EXPECT().DeleteByFilename(gomock.Any(), "doc.txt").Return(nil)
			},
		},
		{
			name:     "chunk write failure restores previous document",
			existing: &storage.DocumentRecord{ID: "doc-1", Filename: "doc.txt", Hash: "old", ChunkCount: 1},
			setup: func(m pipelineMocks) {
				m.chunks.EXPECT().ListIDsByDocument(gomock.Any(), "doc-1").Return([]string{"old-1"}, nil)
				m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, doc *storage.DocumentRecord) error {
						doc.ID = "doc-1"
						return nil
					})
				m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), "doc-1", gomock.Any()).Return(errors.New("disk full"))
				m.vectorStore.EXPECT().Delete(gomock.Any(), "test-collection", []string{"id-1", "id-2"}).Return(nil)
				m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, doc *storage.DocumentRecord) error {
						if doc.Hash != "old" || doc.ChunkCount != 1 {
							t.Errorf("restored document = %+v, want previous record", doc)
						}
						return nil
					})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newTestPipeline(t)
			m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor)
			if tt.existing != nil {
				m.documents.EXPECT().GetByFilename(gomock.Any(), "doc.txt").Return(tt.existing, nil)
			} else {
				m.documents.EXPECT().GetByFilename(gomock.Any(), "doc.txt").Return(nil, storage.ErrNotFound)
			}
			tt.setup(m)

			_, err := p.IndexDocument(context.Background(), "doc.txt", structuredText)
			if err == nil {
				t.Fatal("IndexDocument() expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("IndexDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_IndexDocument_ParagraphGroups(t *testing.T) {
	p, m := newTestPipeline(t)

	m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Len(1)).DoAndReturn(vectorsFor)
	m.documents.EXPECT().GetByFilename(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, records []*storage.ChunkRecord) error {
			if records[0].ChunkType != chunker.ChunkTypeParagraphGroup || records[0].HeaderLevel != 0 {
				t.Errorf("records[0] = %+v, want paragraph group", records[0])
			}
			return nil
		})
	m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, points []vectorstore.Point) error {
			meta := points[0].Meta
			if meta[vectorstore.FieldChunkType] != chunker.ChunkTypeParagraphGroup {
				t.Errorf("chunk_type = %v, want paragraph_group", meta[vectorstore.FieldChunkType])
			}
			for _, key := range []string{vectorstore.FieldHeader, vectorstore.FieldHeaderLevel, vectorstore.FieldIsPartial} {
				if _, ok := meta[key]; ok {
					t.Errorf("paragraph group should not carry %s", key)
				}
			}
			return nil
		})

	if _, err := p.IndexDocument(context.Background(), "plain.txt", "just some text\n\nand another paragraph"); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
}

func TestPipeline_IndexDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		setup   func(m pipelineMocks)
		wantErr error
	}{
		{
			name:    "empty text",
			text:    "",
			setup:   func(m pipelineMocks) {},
			wantErr: ErrNoChunks,
		},
		{
			name:    "whitespace only",
			text:    "  \n\n   \n",
			setup:   func(m pipelineMocks) {},
			wantErr: ErrNoChunks,
		},
		{
			name: "embedding failure leaves stores untouched",
			text: structuredText,
			setup: func(m pipelineMocks) {
				m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("server down"))
			},
			wantErr: service.ErrExternalService,
		},
		{
			name: "embedding count mismatch",
			text: structuredText,
			setup: func(m pipelineMocks) {
				m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1}}, nil)
			},
		},
		{
			name: "registry lookup failure",
			text: structuredText,
			setup: func(m pipelineMocks) {
				m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(vectorsFor)
				m.documents.EXPECT().GetByFilename(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk I/O error"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newTestPipeline(t)
			tt.setup(m)

			_, err := p.IndexDocument(context.Background(), "doc.txt", tt.text)
			if err == nil {
				t.Fatal("IndexDocument() expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("IndexDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_ProcessUpload(t *testing.T) {
	p, m := newTestPipeline(t)

	if _, err := p.ProcessUpload(context.Background(), "image.png", []byte("data")); !errors.Is(err, extract.ErrUnsupportedType) {
		t.Errorf("ProcessUpload() error = %v, want ErrUnsupportedType", err)
	}
	if _, err := p.ProcessUpload(context.Background(), "blank.txt", []byte("   ")); !errors.Is(err, extract.ErrNoText) {
		t.Errorf("ProcessUpload() error = %v, want ErrNoText", err)
	}

	m.embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Len(2)).DoAndReturn(vectorsFor)
	m.documents.EXPECT().GetByFilename(gomock.Any(), "report.txt").Return(nil, storage.ErrNotFound)
	m.vectorStore.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.documents.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	m.chunks.EXPECT().ReplaceByDocument(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	result, err := p.ProcessUpload(context.Background(), "report.txt", []byte(structuredText))
	if err != nil {
		t.Fatalf("ProcessUpload() error = %v", err)
	}
	if len(result.ChunkIDs) != 2 {
		t.Errorf("ProcessUpload() created %d chunks, want 2", len(result.ChunkIDs))
	}
}

func TestPipeline_DeleteDocument(t *testing.T) {
	t.Run("existing document", func(t *testing.T) {
		p, m := newTestPipeline(t)

		gomock.InOrder(
			m.documents.EXPECT().GetByFilename(gomock.Any(), "a.pdf").Return(&storage.DocumentRecord{ID: "d", Filename: "a.pdf", ChunkCount: 7}, nil),
			m.vectorStore.EXPECT().DeleteByFilename(gomock.Any(), "test-collection", "a.pdf").Return(nil),
			m.documents.EXPECT().DeleteByFilename(gomock.Any(), "a.pdf").Return(nil),
		)

		deleted, err := p.DeleteDocument(context.Background(), "a.pdf")
		if err != nil {
			t.Fatalf("DeleteDocument() error = %v", err)
		}
		if deleted != 7 {
			t.Errorf("DeleteDocument() = %d, want 7", deleted)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		p, m := newTestPipeline(t)
		m.documents.EXPECT().GetByFilename(gomock.Any(), "nope.pdf").Return(nil, storage.ErrNotFound)

		if _, err := p.DeleteDocument(context.Background(), "nope.pdf"); !errors.Is(err, ErrDocumentNotFound) {
			t.Errorf("DeleteDocument() error = %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("vector store failure keeps registry", func(t *testing.T) {
		p, m := newTestPipeline(t)
		m.documents.EXPECT().GetByFilename(gomock.Any(), "a.pdf").Return(&storage.DocumentRecord{ID: "d", Filename: "a.pdf"}, nil)
		m.vectorStore.EXPECT().DeleteByFilename(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

		if _, err := p.DeleteDocument(context.Background(), "a.pdf"); err == nil {
			t.Error("DeleteDocument() expected error, got nil")
		}
	})
}
