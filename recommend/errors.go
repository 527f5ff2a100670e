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


package recommend

import "errors"

var (
	// ErrSongRepositoryRequired is returned when a song repository is not provided.
	ErrSongRepositoryRequired = errors.New("song repository required")

	// ErrSongNotAnalyzed is returned when recommendations are requested for a
	// song id that has never been ingested. Searching for the song first will
	// schedule its analysis.
	ErrSongNotAnalyzed = errors.New("song has not been analyzed yet")

	// ErrEmbeddingPending is returned when the song is stored but its
	// embedding has not been generated. Retrying shortly usually succeeds.
	ErrEmbeddingPending = errors.New("song embedding is still pending")
)
