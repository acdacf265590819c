package storage

import (
	"context"
	"slices"
	"testing"
)

func seedDocument(t *testing.T, repo *DocumentRepo, filename string) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{Filename: filename, Hash: "hash"}
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return doc
}

func TestChunkRepo_ReplaceByDocument(t *testing.T) {
	db := newTestDB(t)
	doc := seedDocument(t, NewDocumentRepo(db), "guide.md")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	tests := []struct {
		name       string
		documentID string
		chunks     []*ChunkRecord
		wantErr    bool
		wantIDs    []string
	}{
		{
			name:       "empty batch",
			documentID: doc.ID,
			chunks:     nil,
			wantErr:    false,
			wantIDs:    []string{},
		},
		{
			name:       "header and partial chunks",
			documentID: doc.ID,
			chunks: []*ChunkRecord{
				{ID: "c0", DocumentID: doc.ID, ChunkIndex: 0, Header: "1. Intro", HeaderLevel: 1, Text: "1. Intro\nhello"},
				{ID: "c1", DocumentID: doc.ID, ChunkIndex: 1, Header: "2. Body", HeaderLevel: 1, IsPartial: true, Text: "part"},
			},
			wantErr: false,
			wantIDs: []string{"c0", "c1"},
		},
		{
			name:       "unknown document",
			documentID: "no-such-doc",
			chunks: []*ChunkRecord{
				{ID: "orphan", DocumentID: "no-such-doc", ChunkIndex: 0, Text: "x"},
			},
			wantErr: true,
			wantIDs: []string{"c0", "c1"},
		},
		{
			name:       "mismatched document ID",
			documentID: doc.ID,
			chunks: []*ChunkRecord{
				{ID: "c5", DocumentID: "other", ChunkIndex: 0, Text: "x"},
			},
			wantErr: true,
			wantIDs: []string{"c0", "c1"},
		},
		{
			name:       "duplicate ID keeps previous chunks",
			documentID: doc.ID,
			chunks: []*ChunkRecord{
				{ID: "c9", DocumentID: doc.ID, ChunkIndex: 0, Text: "x"},
				{ID: "c9", DocumentID: doc.ID, ChunkIndex: 1, Text: "dup"},
			},
			wantErr: true,
			wantIDs: []string{"c0", "c1"},
		},
		{
			name:       "replaces previous chunks",
			documentID: doc.ID,
			chunks: []*ChunkRecord{
				{ID: "n0", DocumentID: doc.ID, ChunkIndex: 0, Text: "new"},
			},
			wantErr: false,
			wantIDs: []string{"n0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.ReplaceByDocument(ctx, tt.documentID, tt.chunks)
			if (err != nil) != tt.wantErr {
				t.Errorf("ReplaceByDocument() error = %v, wantErr %v", err, tt.wantErr)
			}

			ids, err := repo.ListIDsByDocument(ctx, doc.ID)
			if err != nil {
				t.Fatalf("ListIDsByDocument() error = %v", err)
			}
			if !slices.Equal(ids, tt.wantIDs) {
				t.Errorf("ListIDsByDocument() = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestChunkRepo_ListByDocument(t *testing.T) {
	db := newTestDB(t)
	doc := seedDocument(t, NewDocumentRepo(db), "plain.txt")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	// Index gaps are preserved
	if err := repo.ReplaceByDocument(ctx, doc.ID, []*ChunkRecord{
		{ID: "b", DocumentID: doc.ID, ChunkIndex: 2, ChunkType: "paragraph_group", Text: "second"},
		{ID: "a", DocumentID: doc.ID, ChunkIndex: 0, ChunkType: "paragraph_group", Text: "first"},
	}); err != nil {
		t.Fatalf("ReplaceByDocument() error = %v", err)
	}

	got, err := repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByDocument() returned %d chunks, want 2", len(got))
	}
	if got[0].ChunkIndex != 0 || got[1].ChunkIndex != 2 {
		t.Errorf("ListByDocument() indexes = %d,%d, want 0,2", got[0].ChunkIndex, got[1].ChunkIndex)
	}
	if got[0].ChunkType != "paragraph_group" || got[0].HeaderLevel != 0 || got[0].IsPartial {
		t.Errorf("ListByDocument()[0] = %+v, want paragraph group without header", got[0])
	}
}

func TestChunkRepo_ListIDsByDocument_Empty(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)

	ids, err := repo.ListIDsByDocument(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("ListIDsByDocument() = %v, want empty non-nil slice", ids)
	}
}

func TestChunkRepo_ReplaceByDocument_LeavesOtherDocuments(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	keep := seedDocument(t, docs, "keep.md")
	swap := seedDocument(t, docs, "swap.md")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	if err := repo.ReplaceByDocument(ctx, keep.ID, []*ChunkRecord{
		{ID: "k", DocumentID: keep.ID, ChunkIndex: 0, Text: "keep"},
	}); err != nil {
		t.Fatalf("ReplaceByDocument(keep) error = %v", err)
	}
	if err := repo.ReplaceByDocument(ctx, swap.ID, []*ChunkRecord{
		{ID: "s1", DocumentID: swap.ID, ChunkIndex: 0, Text: "old"},
		{ID: "s2", DocumentID: swap.ID, ChunkIndex: 1, Text: "old"},
	}); err != nil {
		t.Fatalf("ReplaceByDocument(swap) error = %v", err)
	}
	if err := repo.ReplaceByDocument(ctx, swap.ID, nil); err != nil {
		t.Fatalf("ReplaceByDocument(swap, nil) error = %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
