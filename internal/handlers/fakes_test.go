package handlers

import (
	"context"

	"docsearch/internal/indexer"
	"docsearch/internal/search"
	"docsearch/internal/storage"
)

// fakeIndexer records calls and returns canned values.
type fakeIndexer struct {
	uploadFilename string
	uploadContent  []byte
	uploadResult   *indexer.IndexResult
	uploadErr      error

	deletedFilename string
	deleteCount     int
	deleteErr       error

	docs    []*storage.DocumentRecord
	listErr error

	chunksFilename string
	chunks         []*storage.ChunkRecord
	chunksErr      error

	status    *indexer.Status
	statusErr error
}

func (f *fakeIndexer) ProcessUpload(_ context.Context, filename string, content []byte) (*indexer.IndexResult, error) {
	f.uploadFilename = filename
	f.uploadContent = content
	return f.uploadResult, f.uploadErr
}

func (f *fakeIndexer) DeleteDocument(_ context.Context, filename string) (int, error) {
	f.deletedFilename = filename
	return f.deleteCount, f.deleteErr
}

func (f *fakeIndexer) ListDocuments(context.Context) ([]*storage.DocumentRecord, error) {
	return f.docs, f.listErr
}

func (f *fakeIndexer) DocumentChunks(_ context.Context, filename string) ([]*storage.ChunkRecord, error) {
	f.chunksFilename = filename
	return f.chunks, f.chunksErr
}

func (f *fakeIndexer) Status(context.Context, string) (*indexer.Status, error) {
	return f.status, f.statusErr
}

type fakeSearcher struct {
	query   search.Query
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q search.Query) ([]search.Result, error) {
	f.query = q
	return f.results, f.err
}
