package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
)

// Dense is a nearest-neighbor index over chunk embedding vectors.
//
// Build must complete before Search is called. A built index is immutable
// and safe for concurrent reads; rebuilding means constructing a fresh Dense
// and publishing it in place of the old one (swap-on-complete), never
// mutating a served index.
type Dense struct {
	embedder ai.Embedder
	entries  []denseEntry
	dim      int
	logger   *slog.Logger
}

type denseEntry struct {
	chunk *core.Chunk
	norm  float64 // Precomputed vector magnitude
}

// DenseOption configures a Dense index.
type DenseOption func(*Dense)

// WithDenseLogger sets a custom logger. Default is slog.Default().
func WithDenseLogger(logger *slog.Logger) DenseOption {
	return func(d *Dense) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// NewDense creates a dense index that embeds queries with the given embedder.
func NewDense(embedder ai.Embedder, opts ...DenseOption) (*Dense, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	d := &Dense{
		embedder: embedder,
		logger:   slog.Default().With("component", "dense-index"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Build indexes the given chunks for nearest-neighbor search.
// Chunk vectors are computed at ingestion, so building is a pure in-memory
// operation and is idempotent: building twice from the same chunk set yields
// equivalent search results.
//
// Chunks without a vector are skipped; a vector whose dimensionality differs
// from the rest of the set fails the build.
func (d *Dense) Build(ctx context.Context, chunks []*core.Chunk) error {
	entries := make([]denseEntry, 0, len(chunks))
	dim := 0

	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			d.logger.Warn("skipping chunk without embedding", "chunk", chunk.Id)
			continue
		}
		if dim == 0 {
			dim = len(chunk.Vector)
		} else if len(chunk.Vector) != dim {
			return fmt.Errorf("%w: chunk %d has dimension %d, index has %d",
				core.ErrInvalidChunk, chunk.Id, len(chunk.Vector), dim)
		}
		entries = append(entries, denseEntry{
			chunk: chunk,
			norm:  vectorNorm(chunk.Vector),
		})
	}

	d.entries = entries
	d.dim = dim
	return nil
}

// Len returns the number of indexed chunks.
func (d *Dense) Len() int {
	return len(d.entries)
}

// Search embeds the query and returns the top-k chunks by descending cosine
// similarity. An empty index returns an empty result, not an error. An
// embedding failure is reported as core.ErrEmbeddingService so callers can
// decide whether to degrade to keyword-only retrieval.
func (d *Dense) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopK, k)
	}
	if len(d.entries) == 0 {
		return []*core.SearchResult{}, nil
	}

	vector, err := d.embedder.EmbedText(ctx, query)
	if err != nil {
		d.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
	}

	queryNorm := vectorNorm(vector)
	results := make([]*core.SearchResult, 0, len(d.entries))
	for _, entry := range d.entries {
		results = append(results, &core.SearchResult{
			Chunk: entry.chunk,
			Score: cosineSimilarity(vector, queryNorm, entry.chunk.Vector, entry.norm),
		})
	}

	// Sort by similarity descending, ties by chunk ID ascending for
	// reproducible ordering
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors
// using their precomputed magnitudes.
func cosineSimilarity(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	var dot float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
