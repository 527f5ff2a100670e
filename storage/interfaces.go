package storage

import (
	"context"

	"github.com/harmoniahq/harmonia/core"
)

// SongRepository provides keyed storage for songs and their embedding
// vectors. Implementations must be thread-safe and must provide the
// insert-if-absent guarantee at the storage layer itself; callers never
// hold in-process locks around these operations.
type SongRepository interface {
	// Exists reports whether a song with the given id is already stored.
	// Used by the ingestion pipeline to short-circuit re-ingestion.
	Exists(ctx context.Context, songID string) (bool, error)

	// InsertIfAbsent stores the song only if its id is not already present.
	// Returns true if a write occurred, false if an existing record was
	// left untouched. Never overwrites.
	InsertIfAbsent(ctx context.Context, song *core.Song) (bool, error)

	// Get retrieves a song by id.
	// Returns ErrNotFound if the song doesn't exist.
	Get(ctx context.Context, songID string) (*core.Song, error)

	// FindSimilar returns up to limit songs nearest to the given vector,
	// ordered by descending cosine similarity. A song with id excludeID is
	// removed from the results; pass "" to disable exclusion.
	// Returns ErrVectorIndexMissing if the similarity backend has not been
	// provisioned.
	FindSimilar(ctx context.Context, vector []float32, limit int, excludeID string) ([]*core.SimilarityMatch, error)

	// Stats returns aggregate counts over the stored songs.
	Stats(ctx context.Context) (*StoreStats, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// LanguageCount is one bucket of the per-language distribution.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int64  `json:"count"`
}

// StoreStats holds aggregate counts over the stored songs.
// The per-language counts always sum to TotalSongs.
type StoreStats struct {
	TotalSongs int64           `json:"total_songs"`
	Languages  []LanguageCount `json:"language_distribution"`
}
