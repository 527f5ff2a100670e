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


// Package ai provides abstractions for the embedding service used by
// harmonia.
//
// The package defines the Embedder interface (text in, fixed-length vector
// out) and the text normalization contract (SongText) that turns a song's
// display fields into the string the model embeds. The ingestion pipeline
// and the recommendation engine both depend on these abstractions rather
// than on a concrete model client.
//
// # Implementation Packages
//
//   - ai/openai: production implementation speaking an OpenAI-compatible
//     embeddings API through langchaingo
//   - ai/mock: deterministic test doubles with injectable behavior
//
// # Shared Model Instance
//
// Setting up the model client is the expensive one-time step, so Provider
// implementations guard it so it happens at most once per process, and
// every caller shares the initialized instance. Embedders are read-only
// after initialization and safe for concurrent use.
package ai
