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


// Package index provides the two ranking signals of the retrieval engine.
//
//   - Dense: similarity search over embedding vectors (cosine)
//   - Sparse: BM25 keyword ranking over tokenized chunk text
//
// Both indexes are derived, rebuildable projections of the chunk store:
// they are caches, not sources of truth. A built index is immutable and
// safe for concurrent reads; callers rebuild by constructing a fresh index
// and swapping it in whole once complete.
package index
