package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder tracks how many texts reach the underlying service.
type countingEmbedder struct {
	singleCalls int
	batchTexts  int
	err         error
}

func (c *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.singleCalls++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.batchTexts += len(texts)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func TestWrapLRUCache_Passthrough(t *testing.T) {
	inner := &countingEmbedder{}

	assert.Nil(t, WrapLRUCache(nil, 10, time.Minute))

	// Disabled cache returns the embedder unchanged
	assert.Equal(t, Embedder(inner), WrapLRUCache(inner, 0, time.Minute))
	assert.Equal(t, Embedder(inner), WrapLRUCache(inner, 10, 0))
}

func TestCachingEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	cached := WrapLRUCache(inner, 16, time.Minute)

	first, err := cached.EmbedText(ctx, "hello")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, inner.singleCalls)

	// Second call is served from cache
	second, err := cached.EmbedText(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.singleCalls)

	// Different text misses
	_, err = cached.EmbedText(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.singleCalls)
}

func TestCachingEmbedder_EmbedTextsBatchesMisses(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	cached := WrapLRUCache(inner, 16, time.Minute)

	// Warm the cache with one entry
	_, err := cached.EmbedText(ctx, "alpha")
	require.NoError(t, err)

	vectors, err := cached.EmbedTexts(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.NotEmpty(t, v)
	}

	// Only the two misses went to the service
	assert.Equal(t, 2, inner.batchTexts)

	// Everything is cached now
	_, err = cached.EmbedTexts(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.batchTexts)
}

func TestCachingEmbedder_ErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{err: errors.New("connection refused")}
	cached := WrapLRUCache(inner, 16, time.Minute)

	_, err := cached.EmbedText(ctx, "hello")
	assert.Error(t, err)

	_, err = cached.EmbedTexts(ctx, []string{"hello"})
	assert.Error(t, err)
}

func TestCachingEmbedder_ReturnedVectorsAreIsolated(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	cached := WrapLRUCache(inner, 16, time.Minute)

	first, err := cached.EmbedText(ctx, "hello")
	require.NoError(t, err)

	// Mutating a returned vector must not poison the cache
	first[0] = -999

	second, err := cached.EmbedText(ctx, "hello")
	require.NoError(t, err)
	assert.NotEqual(t, float32(-999), second[0])
}
