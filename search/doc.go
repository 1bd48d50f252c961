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


// Package search provides hybrid retrieval over the dense and sparse indexes.
//
// The Retriever fuses the two ranked lists with weighted reciprocal rank
// fusion, or delegates entirely to one index in semantic/keyword mode.
// Index snapshots and the active configuration are published atomically, so
// every retrieval observes one consistent state, and a transient embedding
// outage during a hybrid query degrades the call to keyword-only instead of
// failing it.
package search
