package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tabula"

	"docsearch/internal/contextutil"
)

// DocumentExtractor extracts text from PDF, DOCX and ODT files with tabula.
// Tabula reads from disk, so content is spooled to a file in os.TempDir first.
type DocumentExtractor struct{}

// NewDocumentExtractor creates a DocumentExtractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// Extract writes content to a temp file carrying filename's extension and extracts its text.
func (d *DocumentExtractor) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		_ = os.Remove(path)
	}()

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	text, warnings, err := tabula.Open(path).Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}
	if len(warnings) > 0 {
		logger.WarnContext(ctx, "text extracted with warnings", "filename", filename, "warnings", len(warnings))
	}

	logger.DebugContext(ctx, "extracted document text", "filename", filename, "chars", len(text))
	return text, nil
}
