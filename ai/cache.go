package ai

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/retrievit/core"
)

// WrapLRUCache decorates an Embedder with an expiring LRU cache keyed by a
// content hash of the input text. Queries repeat far more often than chunk
// texts, so caching mostly saves round-trips on the query path.
//
// Returns the embedder unchanged if size or ttl make caching pointless.
// The cache belongs to a single embedder instance; callers must not share a
// wrapped embedder across different models.
func WrapLRUCache(next Embedder, size int, ttl time.Duration) Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachingEmbedder{
		next:  next,
		cache: expirable.NewLRU[core.ID, []float32](size, nil, ttl),
	}
}

type cachingEmbedder struct {
	next  Embedder
	cache *expirable.LRU[core.ID, []float32]
}

var _ Embedder = (*cachingEmbedder)(nil)

// EmbedText returns a cached vector when available, otherwise delegates.
func (c *cachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := core.IDFromContent(text)
	if cached, ok := c.cache.Get(key); ok {
		return cloneVector(cached), nil
	}
	vector, err := c.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneVector(vector))
	return vector, nil
}

// EmbedTexts serves cache hits locally and batches the misses into a single
// call to the underlying embedder, preserving input order in the result.
func (c *cachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))
	missingTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if cached, ok := c.cache.Get(core.IDFromContent(text)); ok {
			vectors[i] = cloneVector(cached)
			continue
		}
		missing = append(missing, i)
		missingTexts = append(missingTexts, text)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := c.next.EmbedTexts(ctx, missingTexts)
	if err != nil {
		return nil, err
	}

	for j, i := range missing {
		if j >= len(embedded) {
			break
		}
		vectors[i] = embedded[j]
		c.cache.Add(core.IDFromContent(texts[i]), cloneVector(embedded[j]))
	}

	return vectors, nil
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
