package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/search"
	"github.com/poiesic/retrievit/storage"
)

const (
	defaultPoolSize  = 4
	defaultBatchSize = 32
)

// Pipeline ingests documents into the chunk repository and keeps the
// retriever's indexes in sync with it.
//
// All mutating operations are serialized through one mutex. Embedding work
// inside a single Ingest still runs in parallel batches on the worker pool,
// but two mutations never interleave their storage writes or index rebuilds.
type Pipeline struct {
	chunkRepo storage.ChunkRepository
	retriever *search.Retriever
	embedder  ai.Embedder
	splitter  Splitter
	pool      *ants.Pool
	mu        sync.Mutex
	batchSize int
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	poolSize  int
	batchSize int
	splitter  *Splitter
	logger    *slog.Logger
}

// WithPoolSize sets the number of embedding workers. Default is 4.
func WithPoolSize(size int) PipelineOption {
	return func(o *pipelineOptions) {
		if size > 0 {
			o.poolSize = size
		}
	}
}

// WithBatchSize sets how many chunk texts are embedded per worker task.
// Default is 32.
func WithBatchSize(size int) PipelineOption {
	return func(o *pipelineOptions) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithSplitter sets a custom text splitter. Default is
// NewSplitter(DefaultChunkSize, DefaultChunkOverlap).
func WithSplitter(splitter Splitter) PipelineOption {
	return func(o *pipelineOptions) {
		o.splitter = &splitter
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(o *pipelineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewPipeline creates an ingestion pipeline over the given repository,
// retriever and embedder.
func NewPipeline(chunkRepo storage.ChunkRepository, retriever *search.Retriever, embedder ai.Embedder, opts ...PipelineOption) (*Pipeline, error) {
	if chunkRepo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	options := pipelineOptions{
		poolSize:  defaultPoolSize,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	pool, err := ants.NewPool(options.poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating embedding pool: %w", err)
	}

	splitter := NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	if options.splitter != nil {
		splitter = *options.splitter
	}

	return &Pipeline{
		chunkRepo: chunkRepo,
		retriever: retriever,
		embedder:  embedder,
		splitter:  splitter,
		pool:      pool,
		batchSize: options.batchSize,
		logger:    options.logger.With("component", "ingestion"),
	}, nil
}

// Ingest extracts, splits, embeds and stores one document, then rebuilds the
// retriever's indexes. A blank sessionID gets a generated one. Returns the
// session ID the chunks were stored under and how many chunks were created.
//
// A document whose extracted text yields no chunks fails with
// core.ErrEmptyDocument and nothing is stored.
func (p *Pipeline) Ingest(ctx context.Context, fileName string, content []byte, contentType, sessionID string) (string, int, error) {
	text, err := ExtractText(content, contentType)
	if err != nil {
		return "", 0, err
	}

	pieces, err := p.splitter.Split(text)
	if err != nil {
		return "", 0, fmt.Errorf("splitting %q: %w", fileName, err)
	}
	if len(pieces) == 0 {
		return "", 0, fmt.Errorf("%w: %q", core.ErrEmptyDocument, fileName)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	vectors, err := p.embedAll(ctx, pieces)
	if err != nil {
		return "", 0, err
	}

	uploadedAt := time.Now()
	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &core.Chunk{
			Text:        piece,
			Vector:      vectors[i],
			FileName:    fileName,
			SessionID:   sessionID,
			ContentType: normalizeContentType(contentType),
			UploadedAt:  uploadedAt,
			Metadata:    map[string]string{"chunk_index": strconv.Itoa(i)},
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.chunkRepo.PutChunks(ctx, chunks...); err != nil {
		return "", 0, fmt.Errorf("storing chunks for %q: %w", fileName, err)
	}
	if err := p.rebuildLocked(ctx); err != nil {
		return "", 0, err
	}

	p.logger.Info("document ingested",
		"file", fileName, "session", sessionID, "chunks", len(chunks))
	return sessionID, len(chunks), nil
}

// DeleteSession removes every chunk of a session and rebuilds the indexes if
// anything was removed. An unknown session is a no-op returning 0.
func (p *Pipeline) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.chunkRepo.DeleteChunksBySession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("deleting session %q: %w", sessionID, err)
	}
	if n == 0 {
		return 0, nil
	}

	if err := p.rebuildLocked(ctx); err != nil {
		return n, err
	}

	p.logger.Info("session deleted", "session", sessionID, "chunks", n)
	return n, nil
}

// Rebuild reconstructs the retriever's indexes from the stored chunk set.
// Called at startup to restore the index state from persisted chunks.
func (p *Pipeline) Rebuild(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rebuildLocked(ctx)
}

// Reembed regenerates the vector of every stored chunk with the current
// embedder and rebuilds the indexes. Used after switching embedding models,
// since vectors from different models are not comparable.
func (p *Pipeline) Reembed(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	chunks, err := p.chunkRepo.GetAllChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedAll(ctx, texts)
	if err != nil {
		return 0, err
	}
	for i, chunk := range chunks {
		chunk.Vector = vectors[i]
	}

	if _, err := p.chunkRepo.UpdateChunks(ctx, chunks...); err != nil {
		return 0, fmt.Errorf("updating chunks: %w", err)
	}
	if err := p.retriever.Rebuild(ctx, chunks); err != nil {
		return 0, err
	}

	p.logger.Info("collection re-embedded", "chunks", len(chunks))
	return len(chunks), nil
}

// Release shuts down the embedding worker pool.
func (p *Pipeline) Release() {
	p.pool.Release()
}

func (p *Pipeline) rebuildLocked(ctx context.Context) error {
	chunks, err := p.chunkRepo.GetAllChunks(ctx)
	if err != nil {
		return fmt.Errorf("loading chunks for rebuild: %w", err)
	}
	return p.retriever.Rebuild(ctx, chunks)
}

// embedAll embeds texts in batches on the worker pool and returns the
// vectors in input order. The first batch failure wins; partial results are
// discarded.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		batchStart, batch := start, texts[start:end]

		wg.Add(1)
		task := func() {
			defer wg.Done()
			embedded, err := p.embedder.EmbedTexts(ctx, batch)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
				}
				errMu.Unlock()
				return
			}
			copy(vectors[batchStart:], embedded)
		}
		if err := p.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded); run inline.
			task()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
