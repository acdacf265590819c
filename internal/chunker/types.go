package chunker

import "fmt"

// ChunkTypeParagraphGroup marks chunks produced by the no-header paragraph fallback.
const ChunkTypeParagraphGroup = "paragraph_group"

// HeaderMatch is a heading-like line detected in the raw text.
type HeaderMatch struct {
	Position   int    // Byte offset of the line start in the raw text
	Level      int    // 1-3
	Text       string // Trimmed line content
	LineNumber int    // Zero-based line number
}

// Section is the slice of raw text owned by one header.
type Section struct {
	StartPos    int
	EndPos      int
	HeaderText  string
	HeaderLevel int
}

// Chunk is the final output unit handed to the embedding and storage collaborators.
// A chunk carries either header metadata or a chunk type, never both.
type Chunk struct {
	Text        string `json:"text"`
	Index       int    `json:"chunk_index"`
	Filename    string `json:"filename"`
	Header      string `json:"header,omitempty"`
	HeaderLevel int    `json:"header_level,omitempty"`
	IsPartial   bool   `json:"is_partial,omitempty"`
	ChunkType   string `json:"chunk_type,omitempty"`
}

// HasHeader reports whether the chunk was produced by header-based splitting.
func (c Chunk) HasHeader() bool {
	return c.ChunkType == "" && c.HeaderLevel > 0
}

// Config holds the numeric thresholds of the chunker.
type Config struct {
	// ChunkSize is the target chunk length in characters for the paragraph fallback
	// and the basis of the oversized-section ceiling.
	ChunkSize int
	// ChunkOverlap is accepted for compatibility with existing deployments.
	// No splitting path applies it yet.
	ChunkOverlap int
}

// MaxChunkSize is the ceiling above which a header section is force-split.
func (c Config) MaxChunkSize() int {
	return c.ChunkSize * 3
}

// Validate checks that the thresholds are usable.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be greater than 0, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	return nil
}

// piece is a chunk before index and filename are attached.
type piece struct {
	text        string
	header      string
	headerLevel int
	isPartial   bool
	chunkType   string
}
