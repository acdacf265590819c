// Package chunker splits extracted document text into retrieval-sized chunks aligned
// to the document's structural headers.
//
// Chunking is a pure function of the text and the configured thresholds: a Chunker
// holds no mutable state and may be shared by concurrent callers.
package chunker

import "strings"

// Chunker splits document text by detected headers.
type Chunker struct {
	cfg   Config
	rules []HeaderRule
}

// New creates a Chunker with the default header rules.
func New(cfg Config) *Chunker {
	return &Chunker{
		cfg:   cfg,
		rules: DefaultHeaderRules(),
	}
}

// Config returns the thresholds the chunker was built with.
func (c *Chunker) Config() Config {
	return c.cfg
}

// DetectHeaders returns the header occurrences of text in document order.
func (c *Chunker) DetectHeaders(text string) []HeaderMatch {
	return detectHeaders(text, c.rules)
}

// Chunk splits text into ordered chunks tagged with filename.
// Index is the position in the sequence before empty pieces are dropped, so the
// returned indices may have gaps.
func (c *Chunker) Chunk(text, filename string) []Chunk {
	if text == "" {
		return []Chunk{}
	}

	headers := c.DetectHeaders(text)
	pieces := splitByHeaders(text, headers, c.cfg.ChunkSize, c.cfg.MaxChunkSize())

	return assemble(pieces, filename)
}

// assemble enumerates pieces, drops empty ones and attaches ordering metadata.
func assemble(pieces []piece, filename string) []Chunk {
	chunks := make([]Chunk, 0, len(pieces))
	for i, p := range pieces {
		if strings.TrimSpace(p.text) == "" {
			continue
		}

		chunk := Chunk{
			Text:     p.text,
			Index:    i,
			Filename: filename,
		}
		if p.chunkType != "" {
			chunk.ChunkType = p.chunkType
		} else {
			chunk.Header = p.header
			chunk.HeaderLevel = p.headerLevel
			chunk.IsPartial = p.isPartial
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
