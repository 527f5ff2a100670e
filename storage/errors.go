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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested song was not found.
	ErrNotFound = errors.New("song not found")

	// ErrDuplicateKey indicates a duplicate key violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUnavailable indicates that the storage backend is unreachable.
	// Foreground callers should surface it as a retryable service error.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrVectorIndexMissing indicates that the similarity backend has not
	// been provisioned. Unlike ErrUnavailable this is a one-time setup
	// problem, not transient load, and it is surfaced separately so
	// operators know which remedy applies.
	ErrVectorIndexMissing = errors.New("vector index not provisioned")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
