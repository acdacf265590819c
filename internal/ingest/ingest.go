// Package ingest bulk-indexes the supported documents of a local directory.
package ingest

import (
	"context"
	"fmt"
	"os"

	"docsearch/internal/contextutil"
	"docsearch/internal/indexer"
)

// Uploader indexes one document.
type Uploader interface {
	ProcessUpload(ctx context.Context, filename string, content []byte) (*indexer.IndexResult, error)
}

// Summary counts the outcome of a directory run.
type Summary struct {
	Files   int
	Indexed int
	Failed  int
	Chunks  int
}

// Ingester feeds directory contents through the indexing pipeline.
type Ingester struct {
	uploader  Uploader
	supported func(name string) bool
	maxBytes  int64
}

// New creates an Ingester. Files larger than maxBytes are skipped, the same
// limit the upload endpoint applies.
func New(uploader Uploader, supported func(name string) bool, maxBytes int64) *Ingester {
	return &Ingester{
		uploader:  uploader,
		supported: supported,
		maxBytes:  maxBytes,
	}
}

// IndexDirectory indexes every supported file under root, using its relative path
// as the document filename. A failing file is logged and counted and the run continues.
// The summary is valid even when an error is returned.
func (i *Ingester) IndexDirectory(ctx context.Context, root string) (Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := Scan(ctx, root, i.supported)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Files: len(files)}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if file.Size > i.maxBytes {
			logger.WarnContext(ctx, "skipping oversized file", "filename", file.RelPath, "bytes", file.Size, "max_bytes", i.maxBytes)
			summary.Failed++
			continue
		}

		content, err := os.ReadFile(file.AbsPath)
		if err != nil {
			logger.WarnContext(ctx, "failed to read file", "filename", file.RelPath, "error", err)
			summary.Failed++
			continue
		}

		result, err := i.uploader.ProcessUpload(ctx, file.RelPath, content)
		if err != nil {
			logger.WarnContext(ctx, "failed to index file", "filename", file.RelPath, "error", err)
			summary.Failed++
			continue
		}

		summary.Indexed++
		summary.Chunks += len(result.ChunkIDs)
	}

	logger.InfoContext(ctx, "directory indexed",
		"root", root,
		"files", summary.Files,
		"indexed", summary.Indexed,
		"failed", summary.Failed,
		"chunks", summary.Chunks,
	)
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d files failed to index", summary.Failed, summary.Files)
	}
	return summary, nil
}
