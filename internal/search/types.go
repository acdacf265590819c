package search

const (
	// DefaultTopK is used when a query does not specify a result count.
	DefaultTopK = 10
	// MaxTopK is the largest accepted result count.
	MaxTopK = 100
)

// Query is a semantic search request.
type Query struct {
	// Text is the natural-language query. Required.
	Text string
	// TopK is the number of results to return, 1 to MaxTopK.
	TopK int
	// Filename restricts results to one document when set.
	Filename string
	// Rerank blends a lexical score into the vector score before truncating to TopK.
	Rerank bool
}

// Result is a single matching chunk.
type Result struct {
	// DocumentName is the filename the chunk came from.
	DocumentName string `json:"document_name"`
	// ChunkText is the full chunk text.
	ChunkText string `json:"chunk_text"`
	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int `json:"chunk_index"`
	// Similarity is the cosine similarity rounded to 4 decimal places.
	Similarity float64 `json:"similarity_score"`
	// Header is the owning section header, if any.
	Header string `json:"header,omitempty"`
	// HeaderLevel is 1-3 for header chunks, omitted otherwise.
	HeaderLevel int `json:"header_level,omitempty"`
	// IsPartial marks a piece of an oversized section.
	IsPartial bool `json:"is_partial,omitempty"`
	// ChunkType is "paragraph_group" for documents without headers.
	ChunkType string `json:"chunk_type,omitempty"`
	// LexicalScore is present when the query asked for reranking.
	LexicalScore float64 `json:"lexical_score,omitempty"`
}
