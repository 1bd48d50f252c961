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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrMissingMetadata indicates a required metadata field is empty.
	ErrMissingMetadata = errors.New("missing required metadata")

	// ErrInvalidTimestamp indicates a timestamp is zero or in the future.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Argument errors, reported immediately and never retried
var (
	// ErrInvalidTopK indicates a non-positive result count was requested.
	ErrInvalidTopK = errors.New("top-k must be positive")

	// ErrInvalidWeights indicates fusion weights that do not sum to 1.0.
	ErrInvalidWeights = errors.New("invalid fusion weights")

	// ErrInvalidMode indicates an unknown retrieval mode.
	ErrInvalidMode = errors.New("invalid retrieval mode")
)

// Ingestion errors
var (
	// ErrUnsupportedContentType indicates a content type outside the allow-list.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrEmptyDocument indicates that splitting a document yielded no chunks.
	ErrEmptyDocument = errors.New("document contains no indexable text")
)

// Transient upstream failures. The engine degrades to the other ranking
// signal when one of these occurs during a hybrid query and at least one
// signal is still available.
var (
	// ErrEmbeddingService indicates the embedding service failed or timed out.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrRankingService indicates the term-ranking service failed or timed out.
	ErrRankingService = errors.New("ranking service unavailable")
)
