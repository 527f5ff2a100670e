// Package server exposes the HTTP surface: a search proxy in front of the
// upstream song catalogue, recommendation and song lookup endpoints over
// the local store, and store statistics.
//
// The search proxy is where ingestion happens: every search response is
// passed through to the caller verbatim while its songs are scheduled for
// background analysis. Callers never wait for embeddings.
package server
