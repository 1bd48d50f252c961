// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retrievit is a hybrid retrieval engine over a mutable chunk
// collection. Documents are split, embedded and stored in BadgerDB; queries
// fuse semantic (dense vector) and keyword (BM25) rankings with weighted
// reciprocal rank fusion.
package retrievit

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/openai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
	"github.com/poiesic/retrievit/search"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
)

// Engine owns the storage backend, the embedder, the retriever and the
// ingestion pipeline, wired together over one chunk collection.
type Engine struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	embedder  ai.Embedder
	retriever *search.Retriever
	pipeline  *ingestion.Pipeline
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig        *ai.Config
	embedder        ai.Embedder
	inMemory        bool
	retrieverConfig *search.Config
	splitter        *ingestion.Splitter
	logger          *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Ignored when WithEmbedder is also given.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder injects an embedder directly, bypassing the OpenAI-compatible
// client. Useful for tests.
func WithEmbedder(embedder ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithInMemory opens the storage backend in memory, without a directory.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithRetrieverConfig sets the initial retrieval configuration.
func WithRetrieverConfig(config search.Config) EngineOption {
	return func(o *engineOptions) {
		o.retrieverConfig = &config
	}
}

// WithSplitter sets the document splitter used by ingestion.
func WithSplitter(splitter ingestion.Splitter) EngineOption {
	return func(o *engineOptions) {
		o.splitter = &splitter
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the chunk store at filePath and wires up the retriever and
// ingestion pipeline. Indexes are rebuilt from the persisted chunks before
// returning, so a restarted engine retrieves over everything it stored.
func NewEngine(ctx context.Context, filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	retrieverOpts := []search.Option{search.WithLogger(options.logger)}
	if options.retrieverConfig != nil {
		retrieverOpts = append(retrieverOpts, search.WithConfig(*options.retrieverConfig))
	}
	retriever, err := search.NewRetriever(embedder, retrieverOpts...)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	pipelineOpts := []ingestion.PipelineOption{ingestion.WithLogger(options.logger)}
	if options.splitter != nil {
		pipelineOpts = append(pipelineOpts, ingestion.WithSplitter(*options.splitter))
	}
	pipeline, err := ingestion.NewPipeline(chunkRepo, retriever, embedder, pipelineOpts...)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	engine := &Engine{
		backend:   backend,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		retriever: retriever,
		pipeline:  pipeline,
		logger:    options.logger,
	}

	if err := pipeline.Rebuild(ctx); err != nil {
		engine.Close()
		return nil, err
	}

	return engine, nil
}

// Close releases the ingestion pool, the repository and the backend.
func (e *Engine) Close() error {
	e.pipeline.Release()

	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Ingest stores one document under a session and updates the indexes.
// A blank sessionID gets a generated one; the session ID used and the number
// of chunks created are returned.
func (e *Engine) Ingest(ctx context.Context, fileName string, content []byte, contentType, sessionID string) (string, int, error) {
	return e.pipeline.Ingest(ctx, fileName, content, contentType, sessionID)
}

// DeleteSession removes a session's chunks and updates the indexes.
// Deleting an unknown session is a no-op returning 0.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	return e.pipeline.DeleteSession(ctx, sessionID)
}

// Retrieve returns the top-k chunks for the query under the active
// retrieval configuration.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) (*search.Result, error) {
	return e.retriever.Retrieve(ctx, query, k)
}

// RetrieveWithMonitor is Retrieve with observation hooks on the
// intermediate dense, sparse and fusion stages.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, query string, k int, monitor search.RetrievalMonitor) (*search.Result, error) {
	return e.retriever.RetrieveWithMonitor(ctx, query, k, monitor)
}

// RetrieveFiltered restricts retrieval to chunks from the named files.
// An empty filter behaves like Retrieve.
func (e *Engine) RetrieveFiltered(ctx context.Context, query string, fileNames []string, k int) (*search.Result, error) {
	return e.retriever.RetrieveFiltered(ctx, query, fileNames, k)
}

// Reconfigure switches the retrieval mode and fusion weights for subsequent
// queries.
func (e *Engine) Reconfigure(mode search.Mode, denseWeight, sparseWeight float64) error {
	return e.retriever.Reconfigure(mode, denseWeight, sparseWeight)
}

// Config returns the active retrieval configuration.
func (e *Engine) Config() search.Config {
	return e.retriever.Config()
}

// Reembed regenerates every stored chunk's vector with the current embedder
// and rebuilds the indexes.
func (e *Engine) Reembed(ctx context.Context) (int, error) {
	return e.pipeline.Reembed(ctx)
}

// Chunks returns every stored chunk in insertion order.
func (e *Engine) Chunks(ctx context.Context) ([]*core.Chunk, error) {
	return e.chunkRepo.GetAllChunks(ctx)
}

// ChunksBySession returns a session's chunks in insertion order.
func (e *Engine) ChunksBySession(ctx context.Context, sessionID string) ([]*core.Chunk, error) {
	return e.chunkRepo.GetChunksBySession(ctx, sessionID)
}

// FileInfo summarizes one file within a session.
type FileInfo struct {
	Name        string
	ContentType string
	UploadedAt  time.Time
}

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	ID         string
	Files      []FileInfo
	ChunkCount int
}

// Sessions lists the stored sessions in first-insertion order, with their
// file summaries and chunk counts.
func (e *Engine) Sessions(ctx context.Context) ([]SessionInfo, error) {
	chunks, err := e.chunkRepo.GetAllChunks(ctx)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	infos := make(map[string]*SessionInfo)
	seenFile := make(map[string]map[string]bool)

	for _, chunk := range chunks {
		info, ok := infos[chunk.SessionID]
		if !ok {
			info = &SessionInfo{ID: chunk.SessionID}
			infos[chunk.SessionID] = info
			seenFile[chunk.SessionID] = make(map[string]bool)
			order = append(order, chunk.SessionID)
		}
		info.ChunkCount++
		if !seenFile[chunk.SessionID][chunk.FileName] {
			seenFile[chunk.SessionID][chunk.FileName] = true
			info.Files = append(info.Files, FileInfo{
				Name:        chunk.FileName,
				ContentType: chunk.ContentType,
				UploadedAt:  chunk.UploadedAt,
			})
		}
	}

	out := make([]SessionInfo, 0, len(order))
	for _, id := range order {
		out = append(out, *infos[id])
	}
	return out, nil
}
