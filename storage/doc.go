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


// Package storage provides the storage abstraction layer for the retrieval
// engine.
//
// This package defines the ChunkRepository interface that decouples chunk
// persistence from the indexes and the ingestion pipeline, so different
// backends (BadgerDB, in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interface type to
// enforce abstraction:
//
//	repo, err := badger.NewChunkRepository(backend)  // storage.ChunkRepository
//
// # Serialization
//
// Chunks are stored in the MUS binary format. The serializers referenced
// here (core.ChunkMUS, core.IDMUS) are generated into the core package by
// `go generate ./core`, which runs cmd/musgen.
package storage
