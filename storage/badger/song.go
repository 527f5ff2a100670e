package badger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/harmoniahq/harmonia/core"
	"github.com/harmoniahq/harmonia/storage"
)

// SongRepository implements storage.SongRepository for BadgerDB.
type SongRepository struct {
	backend *Backend
}

var _ storage.SongRepository = (*SongRepository)(nil)

// NewSongRepository creates a new SongRepository.
//
// Returns storage.SongRepository interface to enforce abstraction.
func NewSongRepository(backend *Backend) (storage.SongRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &SongRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *SongRepository) Close() error {
	return nil
}

// Exists reports whether a song with the given id is already stored.
func (r *SongRepository) Exists(ctx context.Context, songID string) (bool, error) {
	if r.backend.IsClosed() {
		return false, storage.ErrStorageClosed
	}

	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeSongKey(songID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)

	return found, err
}

// InsertIfAbsent stores the song only if its id is not already present.
// The existence check and the write share one transaction; when two
// concurrent inserts race for the same id, badger's conflict detection
// aborts the loser's commit and the first write wins.
func (r *SongRepository) InsertIfAbsent(ctx context.Context, song *core.Song) (bool, error) {
	if err := core.ValidateSong(song); err != nil {
		return false, err
	}
	if r.backend.IsClosed() {
		return false, storage.ErrStorageClosed
	}

	inserted := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSongKey(song.SongID)

		_, err := tx.Get(key)
		if err == nil {
			// Already present, leave it untouched.
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		song.InsertedAt = time.Now().UTC()
		song.UpdatedAt = song.InsertedAt

		value, err := storage.MarshalSong(song)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		// Language index backs the stats grouping.
		if err := tx.Set(makeLanguageKey(song.Language, song.SongID), []byte(song.SongID)); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		inserted = true
		return nil
	}, true)

	// A conflicting concurrent insert of the same id is not an error;
	// the other writer's record stands.
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// Get retrieves a song by id.
func (r *SongRepository) Get(ctx context.Context, songID string) (*core.Song, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var song *core.Song
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSongKey(songID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			song, err = storage.UnmarshalSong(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return song, nil
}

// FindSimilar delegates to the backend's brute-force scan.
func (r *SongRepository) FindSimilar(ctx context.Context, vector []float32, limit int, excludeID string) ([]*core.SimilarityMatch, error) {
	return r.backend.FindSimilar(ctx, vector, limit, excludeID)
}

// Stats counts stored songs per language by walking the language index.
// The index is written in the same transaction as every record, so the
// per-language counts always sum to the total.
func (r *SongRepository) Stats(ctx context.Context) (*storage.StoreStats, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	counts := make(map[string]int64)
	var total int64

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(songLanguagePrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(iter.Item().Key())
			parts := strings.SplitN(key, ":", 3)
			if len(parts) != 3 {
				continue
			}
			counts[parts[1]]++
			total++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	stats := &storage.StoreStats{TotalSongs: total}
	for language, count := range counts {
		stats.Languages = append(stats.Languages, storage.LanguageCount{
			Language: language,
			Count:    count,
		})
	}
	// Largest buckets first, matching the upstream-facing stats view.
	sort.Slice(stats.Languages, func(i, j int) bool {
		if stats.Languages[i].Count != stats.Languages[j].Count {
			return stats.Languages[i].Count > stats.Languages[j].Count
		}
		return stats.Languages[i].Language < stats.Languages[j].Language
	})

	return stats, nil
}
