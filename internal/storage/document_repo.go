package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docsearch/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// GetByFilename gets a document by filename. Returns ErrNotFound if not found.
	GetByFilename(ctx context.Context, filename string) (*DocumentRecord, error)
	// Upsert inserts a document or updates the existing one with the same filename.
	// The stored ID is written back to doc.ID.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// List returns all documents ordered by filename.
	List(ctx context.Context) ([]*DocumentRecord, error)
	// ListFilenames returns all filenames in sorted order.
	ListFilenames(ctx context.Context) ([]string, error)
	// Count returns the number of registered documents.
	Count(ctx context.Context) (int, error)
	// DeleteByFilename removes a document and its chunks. Returns ErrNotFound if absent.
	DeleteByFilename(ctx context.Context, filename string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db    *sql.DB
	newID func() string
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db, newID: uuid.NewString}
}

// GetByFilename gets a document by filename. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByFilename(ctx context.Context, filename string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, filename, hash, chunk_count, created_at FROM documents WHERE filename = ?",
		filename,
	).Scan(&doc.ID, &doc.Filename, &doc.Hash, &doc.ChunkCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

// Upsert inserts a new document or updates the hash and chunk count of an existing one.
// New documents get a generated ID; existing documents keep theirs.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetByFilename(ctx, doc.Filename)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing != nil {
		doc.ID = existing.ID
	} else if doc.ID == "" {
		doc.ID = r.newID()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, hash, chunk_count, created_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (filename) DO UPDATE SET
		 hash = excluded.hash, chunk_count = excluded.chunk_count`,
		doc.ID, doc.Filename, doc.Hash, doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// List returns all documents ordered by filename.
func (r *DocumentRepo) List(ctx context.Context) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, filename, hash, chunk_count, created_at FROM documents ORDER BY filename",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Hash, &doc.ChunkCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// ListFilenames returns all filenames in sorted order.
// Returns an empty slice if no documents exist.
func (r *DocumentRepo) ListFilenames(ctx context.Context) ([]string, error) {
	docs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	filenames := make([]string, 0, len(docs))
	for _, doc := range docs {
		filenames = append(filenames, doc.Filename)
	}
	return filenames, nil
}

// Count returns the number of registered documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// DeleteByFilename removes a document and its chunks in one transaction.
func (r *DocumentRepo) DeleteByFilename(ctx context.Context, filename string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id IN (SELECT id FROM documents WHERE filename = ?)",
		filename,
	); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE filename = ?", filename)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
