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


// Package provider fetches song metadata from the external catalogue's
// search API.
//
// The catalogue is treated as a black box: the client passes the response
// body through verbatim and extracts only the handful of fields the rest
// of the system needs (id, name, primary artist, album, language). Every
// request runs under a bounded timeout. Retrying a failed fetch is opt-in
// via WithRetries, and an optional ResponseCache short-circuits identical
// searches for its TTL.
package provider
