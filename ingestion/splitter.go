package ingestion

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking geometry, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Splitter splits document text into overlapping chunks of a target size.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter with the given target chunk size and
// overlap, both measured in characters. Non-positive values fall back to the
// defaults.
func NewSplitter(chunkSize, chunkOverlap int) Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split breaks text into chunks, dropping whitespace-only pieces.
// Empty or unsplittable input yields an empty slice.
func (s Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	pieces, err := s.inner.SplitText(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks, nil
}
