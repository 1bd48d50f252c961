package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/index"
)

// filterOverfetchFactor is how many times the requested result count a
// filtered retrieval fetches before applying the file-name filter. Filtering
// happens on an unfiltered top-k superset rather than a transient per-query
// index, so a very selective filter may return fewer than k results even
// when more matching chunks exist. That is a documented trade-off: it keeps
// query latency bounded and avoids a second index consistency surface.
const filterOverfetchFactor = 4

// Result is the outcome of one retrieval.
type Result struct {
	// Chunks is the fused ranking, best first.
	Chunks []*core.SearchResult

	// Degraded reports that a hybrid retrieval lost one of its ranking
	// signals to a transient upstream failure and fell back to the other.
	Degraded bool
}

// Retriever produces one ranked chunk list from the active dense/sparse
// index pair according to the active configuration.
//
// Both the index pair and the configuration are swapped atomically:
// a retrieval captures one consistent snapshot of each at call start, so
// concurrent rebuilds and reconfigurations never produce a torn read mixing
// old sparse results with new dense results.
type Retriever struct {
	embedder  ai.Embedder
	tokenizer index.Tokenizer
	indexes   atomic.Pointer[indexPair]
	config    atomic.Pointer[Config]
	logger    *slog.Logger
}

// indexPair is one consistent dense+sparse snapshot, published whole.
type indexPair struct {
	dense  *index.Dense
	sparse *index.Sparse
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithRetrieverTokenizer sets the tokenizer used by sparse index rebuilds.
// Default is index.DefaultTokenizer.
func WithRetrieverTokenizer(tokenizer index.Tokenizer) Option {
	return func(r *Retriever) error {
		if tokenizer == nil {
			tokenizer = index.DefaultTokenizer{}
		}
		r.tokenizer = tokenizer
		return nil
	}
}

// WithConfig sets the initial configuration. Default is DefaultConfig().
func WithConfig(config Config) Option {
	return func(r *Retriever) error {
		if err := config.Validate(); err != nil {
			return err
		}
		r.config.Store(&config)
		return nil
	}
}

// NewRetriever creates a retriever. It starts empty: until the first Rebuild
// every retrieval returns an empty result.
func NewRetriever(embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		embedder:  embedder,
		tokenizer: index.DefaultTokenizer{},
		logger:    slog.Default(),
	}
	cfg := DefaultConfig()
	r.config.Store(&cfg)

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Rebuild constructs fresh dense and sparse indexes from the given chunk set
// and publishes them as the current snapshot in one step. Retrievals running
// concurrently keep serving the previous snapshot until they finish.
func (r *Retriever) Rebuild(ctx context.Context, chunks []*core.Chunk) error {
	dense, err := index.NewDense(r.embedder, index.WithDenseLogger(r.logger))
	if err != nil {
		return err
	}
	if err := dense.Build(ctx, chunks); err != nil {
		return err
	}

	sparse := index.NewSparse(index.WithTokenizer(r.tokenizer))
	sparse.Build(chunks)

	r.indexes.Store(&indexPair{dense: dense, sparse: sparse})
	r.logger.Debug("published rebuilt indexes", "chunks", len(chunks))
	return nil
}

// Reconfigure switches the active mode and fusion weights. The change
// applies to all subsequent retrievals; calls already in flight keep the
// configuration they captured at start.
func (r *Retriever) Reconfigure(mode Mode, denseWeight, sparseWeight float64) error {
	current := r.config.Load()
	next := Config{
		Mode:            mode,
		DenseWeight:     denseWeight,
		SparseWeight:    sparseWeight,
		OverfetchFactor: current.OverfetchFactor,
	}
	if err := next.Validate(); err != nil {
		return err
	}

	r.config.Store(&next)
	r.logger.Info("retriever reconfigured",
		"mode", mode.String(), "dense_weight", denseWeight, "sparse_weight", sparseWeight)
	return nil
}

// Config returns the active configuration.
func (r *Retriever) Config() Config {
	return *r.config.Load()
}

// Retrieve returns the top-k chunks for the query under the active
// configuration.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (*Result, error) {
	return r.RetrieveWithMonitor(ctx, query, k, nil)
}

// RetrieveWithMonitor is Retrieve with observation hooks; the monitor
// receives callbacks at each stage of the retrieval.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, k int, monitor RetrievalMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopK, k)
	}

	// Capture one consistent snapshot of indexes and configuration.
	pair := r.indexes.Load()
	cfg := *r.config.Load()

	monitor.Start(query)

	if pair == nil {
		result := &Result{Chunks: []*core.SearchResult{}}
		monitor.Finish(result)
		return result, nil
	}

	result, err := r.retrieve(ctx, pair, cfg, query, k, monitor)
	if err != nil {
		return nil, err
	}
	monitor.Finish(result)
	return result, nil
}

func (r *Retriever) retrieve(ctx context.Context, pair *indexPair, cfg Config, query string, k int, monitor RetrievalMonitor) (*Result, error) {
	switch cfg.Mode {
	case ModeSemantic:
		denseResults, err := pair.dense.Search(ctx, query, k)
		if err != nil {
			return nil, err
		}
		monitor.AfterDenseSearch(denseResults)
		return &Result{Chunks: denseResults}, nil

	case ModeKeyword:
		sparseResults, err := pair.sparse.Search(query, k)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrRankingService, err)
		}
		monitor.AfterSparseSearch(sparseResults)
		return &Result{Chunks: sparseResults}, nil

	case ModeHybrid:
		return r.retrieveHybrid(ctx, pair, cfg, query, k, monitor)

	default:
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidMode, int(cfg.Mode))
	}
}

// retrieveHybrid queries both sub-indexes with an enlarged candidate count
// and fuses the two rankings. If exactly one signal fails transiently, the
// retrieval degrades to the surviving signal and flags the result instead of
// failing; if both fail, the aggregated failure propagates.
func (r *Retriever) retrieveHybrid(ctx context.Context, pair *indexPair, cfg Config, query string, k int, monitor RetrievalMonitor) (*Result, error) {
	fetch := k * cfg.OverfetchFactor

	denseResults, denseErr := pair.dense.Search(ctx, query, fetch)
	if denseErr == nil {
		monitor.AfterDenseSearch(denseResults)
	}

	sparseResults, sparseErr := pair.sparse.Search(query, fetch)
	if sparseErr != nil {
		sparseErr = fmt.Errorf("%w: %w", core.ErrRankingService, sparseErr)
	} else {
		monitor.AfterSparseSearch(sparseResults)
	}

	switch {
	case denseErr != nil && sparseErr != nil:
		return nil, errors.Join(denseErr, sparseErr)

	case denseErr != nil:
		if !errors.Is(denseErr, core.ErrEmbeddingService) {
			return nil, denseErr
		}
		r.logger.Warn("dense search unavailable, degrading to keyword-only", "err", denseErr)
		monitor.Degraded(denseErr)
		return &Result{Chunks: truncate(sparseResults, k), Degraded: true}, nil

	case sparseErr != nil:
		r.logger.Warn("sparse search unavailable, degrading to semantic-only", "err", sparseErr)
		monitor.Degraded(sparseErr)
		return &Result{Chunks: truncate(denseResults, k), Degraded: true}, nil
	}

	fused := fuseRanked(denseResults, sparseResults, cfg.DenseWeight, cfg.SparseWeight, k)
	return &Result{Chunks: fused}, nil
}

// RetrieveFiltered restricts retrieval to chunks whose FileName is in
// fileNames. An empty filter behaves exactly like Retrieve.
//
// The implementation fetches an enlarged unfiltered ranking and filters it
// by metadata, never building a transient per-query index; see
// filterOverfetchFactor for the consequences.
func (r *Retriever) RetrieveFiltered(ctx context.Context, query string, fileNames []string, k int) (*Result, error) {
	if len(fileNames) == 0 {
		return r.Retrieve(ctx, query, k)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopK, k)
	}

	allowed := make(map[string]bool, len(fileNames))
	for _, name := range fileNames {
		allowed[name] = true
	}

	result, err := r.Retrieve(ctx, query, k*filterOverfetchFactor)
	if err != nil {
		return nil, err
	}

	filtered := make([]*core.SearchResult, 0, k)
	for _, sr := range result.Chunks {
		if allowed[sr.Chunk.FileName] {
			filtered = append(filtered, sr)
			if len(filtered) == k {
				break
			}
		}
	}

	return &Result{Chunks: filtered, Degraded: result.Degraded}, nil
}

func truncate(results []*core.SearchResult, k int) []*core.SearchResult {
	if len(results) > k {
		return results[:k]
	}
	return results
}
