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


// Package ingestion turns raw documents into stored, indexed chunks.
//
// The Pipeline extracts text by content type, splits it into overlapping
// chunks, embeds the chunks in parallel batches, persists them, and then
// rebuilds the retriever's index snapshot. Mutations are serialized: at most
// one ingest, delete, or re-embed runs at a time, and each one completes its
// index rebuild before returning, so a retrieval issued after a mutation
// returns always observes that mutation.
package ingestion
