package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks docsearch/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// ReplaceByDocument swaps a document's chunks for the given ones in a single
	// transaction. Every chunk.ID must be set and every chunk.DocumentID must
	// equal documentID.
	ReplaceByDocument(ctx context.Context, documentID string, chunks []*ChunkRecord) error
	// ListIDsByDocument returns all chunk IDs for a document, ordered by chunk_index.
	ListIDsByDocument(ctx context.Context, documentID string) ([]string, error)
	// ListByDocument returns all chunks for a document, ordered by chunk_index.
	ListByDocument(ctx context.Context, documentID string) ([]*ChunkRecord, error)
	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceByDocument deletes the document's previous chunks and inserts the new
// ones in one transaction. On error the previous chunks are left in place.
func (r *ChunkRepo) ReplaceByDocument(ctx context.Context, documentID string, chunks []*ChunkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, chunk_index, header, header_level, is_partial, chunk_type, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, chunk := range chunks {
		if chunk.DocumentID != documentID {
			return fmt.Errorf("chunk %s belongs to document %q, not %q", chunk.ID, chunk.DocumentID, documentID)
		}
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Header,
			chunk.HeaderLevel, chunk.IsPartial, chunk.ChunkType, chunk.Text,
		); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListIDsByDocument returns all chunk IDs for a document, ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// ListByDocument returns all chunks for a document, ordered by chunk_index.
func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, header, header_level, is_partial, chunk_type, text
		 FROM chunks WHERE document_id = ? ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []*ChunkRecord
	for rows.Next() {
		var chunk ChunkRecord
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Header,
			&chunk.HeaderLevel, &chunk.IsPartial, &chunk.ChunkType, &chunk.Text,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}

// Count returns the total number of stored chunks.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
