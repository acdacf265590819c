package storage

import "time"

// DocumentRecord is an uploaded document registered in the database.
type DocumentRecord struct {
	ID         string // UUID
	Filename   string // Unique upload filename
	Hash       string // SHA256 hex string of the extracted text
	ChunkCount int
	CreatedAt  time.Time
}

// ChunkRecord is a chunk of a document, stored alongside its vector point.
type ChunkRecord struct {
	ID          string // Same as the vector store point ID
	DocumentID  string // Foreign key to documents.id
	ChunkIndex  int    // Pre-filter enumeration index, may have gaps
	Header      string // Owning header text, empty for paragraph groups
	HeaderLevel int    // 1-3, 0 when there is no header
	IsPartial   bool
	ChunkType   string // "paragraph_group" when the document had no headers
	Text        string
}
