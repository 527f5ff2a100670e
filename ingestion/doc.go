// Package ingestion provides pipeline orchestration for analyzing songs.
//
// The Pipeline type manages the ingestion workflow for song records pulled
// from the upstream catalogue, including:
//   - Skipping songs that are already stored
//   - Generating an embedding from the song's descriptive metadata
//   - Inserting the song and its vector, never overwriting existing records
//
// Processing is performed concurrently using a worker pool. Errors while
// processing one record are logged and never fail the batch or the caller's
// request: ingestion is a side effect of serving search traffic.
package ingestion
