// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedType is returned for file extensions without an extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoText is returned when a file yields no usable text.
	ErrNoText = errors.New("no text could be extracted")
)

// Extractor extracts plain text from a file's content.
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) (string, error)
}

// Registry dispatches to an Extractor by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates a registry with the built-in extractors:
// PDF, DOCX and ODT through tabula, markdown through goldmark, and plain text.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}

	doc := NewDocumentExtractor()
	r.Register(doc, ".pdf", ".docx", ".odt")
	r.Register(NewMarkdownExtractor(), ".md", ".markdown")
	r.Register(PlainTextExtractor{}, ".txt")

	return r
}

// Register binds an extractor to one or more extensions, replacing existing bindings.
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Supported reports whether the filename has a registered extension.
func (r *Registry) Supported(filename string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract runs the extractor registered for filename's extension.
// Returns ErrUnsupportedType for unknown extensions and ErrNoText when
// the result is empty after trimming whitespace.
func (r *Registry) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	if len(content) == 0 {
		return "", ErrNoText
	}

	text, err := e.Extract(ctx, filename, content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	return text, nil
}
