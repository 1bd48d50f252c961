package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retrieverChunk(id core.ID, text, fileName string, vector []float32) *core.Chunk {
	return &core.Chunk{
		Id:          id,
		Text:        text,
		Vector:      vector,
		FileName:    fileName,
		SessionID:   "session-1",
		ContentType: "text/plain",
		UploadedAt:  time.Now().UTC(),
	}
}

// queryAlignedEmbedder returns a fixed query vector so dense rankings in
// tests are predictable.
func queryAlignedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func testChunkSet() []*core.Chunk {
	return []*core.Chunk{
		retrieverChunk(1, "gophers dig extensive tunnel networks", "animals.txt", []float32{1, 0, 0}),
		retrieverChunk(2, "tunnels require structural support", "engineering.txt", []float32{0.9, 0.1, 0}),
		retrieverChunk(3, "sourdough bread needs a mature starter", "baking.txt", []float32{0, 1, 0}),
		retrieverChunk(4, "steam engines power old locomotives", "engineering.txt", []float32{0, 0, 1}),
	}
}

func TestNewRetriever(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		retriever, err := NewRetriever(mock.NewMockEmbedder())
		require.NoError(t, err)
		assert.NotNil(t, retriever)
		assert.Equal(t, DefaultConfig(), retriever.Config())
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewRetriever(nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("with custom logger", func(t *testing.T) {
		retriever, err := NewRetriever(mock.NewMockEmbedder(), WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, retriever)
	})

	t.Run("with invalid config", func(t *testing.T) {
		_, err := NewRetriever(mock.NewMockEmbedder(), WithConfig(Config{
			Mode:            ModeHybrid,
			DenseWeight:     0.9,
			SparseWeight:    0.9,
			OverfetchFactor: 2,
		}))
		assert.ErrorIs(t, err, core.ErrInvalidWeights)
	})
}

func TestRetrieve_BeforeFirstRebuild(t *testing.T) {
	retriever, err := NewRetriever(mock.NewMockEmbedder())
	require.NoError(t, err)

	result, err := retriever.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
	assert.False(t, result.Degraded)
}

func TestRetrieve_InvalidTopK(t *testing.T) {
	retriever, err := NewRetriever(mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = retriever.Retrieve(context.Background(), "query", 0)
	assert.ErrorIs(t, err, core.ErrInvalidTopK)
}

func TestRetrieve_Hybrid(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	result, err := retriever.Retrieve(ctx, "tunnel networks", 3)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)
	assert.False(t, result.Degraded)
	assert.LessOrEqual(t, len(result.Chunks), 3)

	// Chunk 1 leads both signals: best dense similarity and the keyword hits
	assert.Equal(t, core.ID(1), result.Chunks[0].Chunk.Id)

	for i := 0; i < len(result.Chunks)-1; i++ {
		assert.GreaterOrEqual(t, result.Chunks[i].Score, result.Chunks[i+1].Score)
	}
}

func TestRetrieve_SemanticMode(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{0, 1, 0}),
		WithConfig(Config{Mode: ModeSemantic, OverfetchFactor: 1}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	result, err := retriever.Retrieve(ctx, "baking", 2)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, core.ID(3), result.Chunks[0].Chunk.Id)
}

func TestRetrieve_KeywordMode(t *testing.T) {
	ctx := context.Background()

	// Keyword mode must not touch the embedder at query time
	embedder := mock.NewMockEmbedder()
	queryCalls := 0
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		queryCalls++
		return nil, errors.New("embedder must not be called")
	}

	retriever, err := NewRetriever(embedder,
		WithConfig(Config{Mode: ModeKeyword, OverfetchFactor: 1}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	result, err := retriever.Retrieve(ctx, "sourdough starter", 2)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, core.ID(3), result.Chunks[0].Chunk.Id)
	assert.Equal(t, 0, queryCalls)
}

func TestRetrieve_DegradesToKeywordOnEmbeddingFailure(t *testing.T) {
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	retriever, err := NewRetriever(embedder)
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	// Embedding service goes down after the index is built
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	result, err := retriever.Retrieve(ctx, "tunnel support", 3)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	require.NotEmpty(t, result.Chunks)

	// Results are the keyword ranking
	for _, sr := range result.Chunks {
		assert.Contains(t, []core.ID{1, 2}, sr.Chunk.Id)
	}
}

func TestRetrieve_BothModesUnavailableFails(t *testing.T) {
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	retriever, err := NewRetriever(embedder)
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	// A stop-word-only query yields no keyword signal but an empty result is
	// still a successful sparse search, so this degrades rather than fails.
	result, err := retriever.Retrieve(ctx, "the of and", 3)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Chunks)
}

func TestReconfigure(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	t.Run("switches mode for subsequent retrievals", func(t *testing.T) {
		require.NoError(t, retriever.Reconfigure(ModeKeyword, 0, 0))
		assert.Equal(t, ModeKeyword, retriever.Config().Mode)

		result, err := retriever.Retrieve(ctx, "sourdough", 2)
		require.NoError(t, err)
		require.NotEmpty(t, result.Chunks)
		assert.Equal(t, core.ID(3), result.Chunks[0].Chunk.Id)
	})

	t.Run("adjusts hybrid weights", func(t *testing.T) {
		require.NoError(t, retriever.Reconfigure(ModeHybrid, 0.8, 0.2))
		cfg := retriever.Config()
		assert.Equal(t, ModeHybrid, cfg.Mode)
		assert.Equal(t, 0.8, cfg.DenseWeight)
		assert.Equal(t, 0.2, cfg.SparseWeight)
	})

	t.Run("keeps overfetch factor", func(t *testing.T) {
		before := retriever.Config().OverfetchFactor
		require.NoError(t, retriever.Reconfigure(ModeHybrid, 0.5, 0.5))
		assert.Equal(t, before, retriever.Config().OverfetchFactor)
	})

	t.Run("rejects invalid weights and keeps previous config", func(t *testing.T) {
		require.NoError(t, retriever.Reconfigure(ModeHybrid, 0.6, 0.4))

		err := retriever.Reconfigure(ModeHybrid, 0.6, 0.6)
		assert.ErrorIs(t, err, core.ErrInvalidWeights)

		cfg := retriever.Config()
		assert.Equal(t, 0.6, cfg.DenseWeight)
		assert.Equal(t, 0.4, cfg.SparseWeight)
	})

	t.Run("rejects invalid mode", func(t *testing.T) {
		err := retriever.Reconfigure(Mode(42), 0.5, 0.5)
		assert.ErrorIs(t, err, core.ErrInvalidMode)
	})
}

func TestRetrieveFiltered(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	t.Run("returns only chunks from named files", func(t *testing.T) {
		result, err := retriever.RetrieveFiltered(ctx, "tunnel", []string{"engineering.txt"}, 5)
		require.NoError(t, err)
		require.NotEmpty(t, result.Chunks)
		for _, sr := range result.Chunks {
			assert.Equal(t, "engineering.txt", sr.Chunk.FileName)
		}
	})

	t.Run("empty filter behaves like unfiltered retrieval", func(t *testing.T) {
		filtered, err := retriever.RetrieveFiltered(ctx, "tunnel networks", nil, 3)
		require.NoError(t, err)

		unfiltered, err := retriever.Retrieve(ctx, "tunnel networks", 3)
		require.NoError(t, err)

		require.Len(t, filtered.Chunks, len(unfiltered.Chunks))
		for i := range filtered.Chunks {
			assert.Equal(t, unfiltered.Chunks[i].Chunk.Id, filtered.Chunks[i].Chunk.Id)
		}
	})

	t.Run("unknown file yields empty result", func(t *testing.T) {
		result, err := retriever.RetrieveFiltered(ctx, "tunnel", []string{"missing.txt"}, 5)
		require.NoError(t, err)
		assert.Empty(t, result.Chunks)
	})

	t.Run("invalid k", func(t *testing.T) {
		_, err := retriever.RetrieveFiltered(ctx, "tunnel", []string{"engineering.txt"}, 0)
		assert.ErrorIs(t, err, core.ErrInvalidTopK)
	})
}

func TestRebuild_SwapsSnapshotsAtomically(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	before, err := retriever.Retrieve(ctx, "tunnel networks", 5)
	require.NoError(t, err)
	require.NotEmpty(t, before.Chunks)

	// Rebuild with a reduced chunk set: the removed chunks must disappear
	// from results immediately
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()[2:]))

	after, err := retriever.Retrieve(ctx, "tunnel networks", 5)
	require.NoError(t, err)
	for _, sr := range after.Chunks {
		assert.NotContains(t, []core.ID{1, 2}, sr.Chunk.Id)
	}
}

type recordingMonitor struct {
	started     bool
	denseCount  int
	sparseCount int
	degraded    bool
	finished    bool
}

func (m *recordingMonitor) Start(_ string)                           { m.started = true }
func (m *recordingMonitor) AfterDenseSearch(r []*core.SearchResult)  { m.denseCount = len(r) }
func (m *recordingMonitor) AfterSparseSearch(r []*core.SearchResult) { m.sparseCount = len(r) }
func (m *recordingMonitor) Degraded(_ error)                         { m.degraded = true }
func (m *recordingMonitor) Finish(_ *Result)                         { m.finished = true }

func TestRetrieveWithMonitor(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	monitor := &recordingMonitor{}
	_, err = retriever.RetrieveWithMonitor(ctx, "tunnel networks", 3, monitor)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.True(t, monitor.finished)
	assert.False(t, monitor.degraded)
	assert.Greater(t, monitor.denseCount, 0)
	assert.Greater(t, monitor.sparseCount, 0)
}

func TestRetrieve_ConcurrentWithRebuilds(t *testing.T) {
	ctx := context.Background()
	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, testChunkSet()))

	done := make(chan error, 20)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := retriever.Retrieve(ctx, "tunnel networks", 3)
			done <- err
		}()
		go func(n int) {
			chunks := testChunkSet()
			done <- retriever.Rebuild(ctx, chunks[:1+n%len(chunks)])
		}(i)
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, <-done)
	}
}

func TestRetrieve_UsesOverfetchForFusion(t *testing.T) {
	ctx := context.Background()

	// With k=1 and overfetch 2, both sub-indexes are asked for 2 candidates,
	// so a chunk ranked second in each list can still win fusion.
	chunks := []*core.Chunk{
		retrieverChunk(1, "alpha alpha alpha", "a.txt", []float32{1, 0}),
		retrieverChunk(2, "alpha beta", "b.txt", []float32{0.95, 0.05}),
		retrieverChunk(3, "beta beta beta", "c.txt", []float32{0, 1}),
	}

	retriever, err := NewRetriever(queryAlignedEmbedder([]float32{1, 0}))
	require.NoError(t, err)
	require.NoError(t, retriever.Rebuild(ctx, chunks))

	result, err := retriever.Retrieve(ctx, "alpha beta", 1)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	// Chunk 3 is last in the dense list and can't win; the victor holds a
	// top-2 position in both lists.
	assert.Contains(t, []core.ID{1, 2}, result.Chunks[0].Chunk.Id)
}
