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


// Package ai provides abstractions for the AI services used by the engine.
//
// The engine's only AI collaborator is the Embedder, which turns text into
// fixed-length vectors for dense retrieval. The package follows the
// dependency inversion principle: the indexes and the ingestion pipeline
// depend on the Embedder abstraction, never on a concrete provider.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test double for unit testing without external
//     dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return the INTERFACE type to
// enforce abstraction. Test utility constructors (mock.NewMockEmbedder)
// return the CONCRETE type to enable test assertions and behavior injection
// (CallCount, EmbedTextFunc, Reset).
//
// # Caching
//
// WrapLRUCache decorates any Embedder with an expiring LRU cache keyed by a
// BLAKE2b content hash, so repeated queries do not hit the embedding service.
package ai
