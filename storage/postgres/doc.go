// Package postgres implements the song repository on PostgreSQL with the
// pgvector extension.
//
// The conditional insert (ON CONFLICT DO NOTHING) and the similarity query
// (the <=> cosine distance operator) both run inside the database, so the
// at-most-once storage invariant holds even when several processes share
// the store. Provisioning the pgvector extension and the ANN index is an
// out-of-band administrative step; until it happens, operations that need
// the vector type fail with storage.ErrVectorIndexMissing.
package postgres
