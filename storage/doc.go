// Copyright 2026 Harmonia Systems
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


// Package storage provides the storage abstraction layer for harmonia.
//
// This package defines the SongRepository interface that decouples the
// ingestion pipeline and the recommendation engine from the storage
// implementation. Two backends implement it:
//
//   - storage/badger: embedded BadgerDB with brute-force cosine similarity,
//     suitable for single-node deployments and tests
//   - storage/postgres: PostgreSQL with the pgvector extension, suitable for
//     deployments that share a store across processes
//
// # Insert-if-absent
//
// The uniqueness invariant (at most one stored record per song id, and at
// most one vector write per record) is enforced by InsertIfAbsent at the
// storage layer itself: a conditional transaction in BadgerDB, and
// INSERT ... ON CONFLICT DO NOTHING in PostgreSQL. Callers never attempt to
// emulate this with in-process locking, which would not hold across
// multiple process instances.
//
// # Constructor Return Type Pattern
//
// Backend constructors return the storage.SongRepository interface to
// prevent accidental coupling to a concrete backend:
//
//	repo, err := badger.NewSongRepository(backend)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
