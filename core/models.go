package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Chunk is a contiguous slice of a source document's text, the unit of
// indexing and retrieval. A document upload is represented as the set of
// chunks sharing the same (FileName, SessionID) pair.
//
// Chunks are never mutated in place: re-uploading a file creates new chunks,
// and a chunk's text stays fixed once ingested. The vector changes only when
// the collection is re-embedded.
type Chunk struct {
	Id          ID
	Text        string
	Vector      []float32 // Embedding vector, computed at ingestion
	FileName    string
	SessionID   string
	ContentType string
	UploadedAt  time.Time         // When the source document was uploaded
	Metadata    map[string]string // Optional additional metadata
	InsertedAt  time.Time         // When the chunk was inserted into the database
}

// SearchResult represents a retrieved chunk with its relevance score.
// The score scale depends on the index that produced it: cosine similarity
// for dense results, BM25 for sparse results, a rank-fusion score for hybrid
// results. Scores from different indexes are not comparable to each other.
type SearchResult struct {
	Chunk *Chunk
	Score float64
}
