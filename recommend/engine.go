package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/harmoniahq/harmonia/storage"
)

// DefaultLimit is the number of recommendations returned when the caller
// does not ask for a specific count.
const DefaultLimit = 10

// MaxLimit caps how many recommendations a single query may return.
const MaxLimit = 50

// RecommendedSong is a single recommendation, carrying the stored metadata
// together with the similarity score that ranked it.
type RecommendedSong struct {
	SongID          string          `json:"song_id"`
	Name            string          `json:"name"`
	PrimaryArtist   string          `json:"primary_artist"`
	AlbumName       string          `json:"album_name,omitempty"`
	Language        string          `json:"language,omitempty"`
	SimilarityScore float32         `json:"similarity_score"`
	RawData         json.RawMessage `json:"raw_data,omitempty"`
}

// Recommendations is the result of a recommendation query.
type Recommendations struct {
	QuerySongID   string            `json:"query_song_id"`
	QuerySongName string            `json:"query_song_name"`
	Songs         []RecommendedSong `json:"recommendations"`
	Total         int               `json:"total"`
}

// Engine answers similarity queries over the analyzed songs.
type Engine struct {
	songRepository storage.SongRepository
	maxLimit       int
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithMaxLimit overrides the cap on recommendations per query.
// Default is MaxLimit.
func WithMaxLimit(limit int) Option {
	return func(e *Engine) error {
		if limit > 0 {
			e.maxLimit = limit
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new recommendation engine.
func NewEngine(songRepository storage.SongRepository, opts ...Option) (*Engine, error) {
	if songRepository == nil {
		return nil, ErrSongRepositoryRequired
	}

	e := &Engine{
		songRepository: songRepository,
		maxLimit:       MaxLimit,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Recommend returns up to limit songs similar to the given song, ranked by
// descending similarity. The query song itself is never among the results.
func (e *Engine) Recommend(ctx context.Context, songID string, limit int) (*Recommendations, error) {
	return e.RecommendWithMonitor(ctx, songID, limit, nil)
}

// RecommendWithMonitor is Recommend with stage callbacks for observability.
func (e *Engine) RecommendWithMonitor(ctx context.Context, songID string, limit int, monitor Monitor) (*Recommendations, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(songID)

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}

	song, err := e.songRepository.Get(ctx, songID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSongNotAnalyzed
		}
		e.logger.Error("error loading query song", "songId", songID, "err", err)
		return nil, err
	}

	if !song.Embedded() {
		return nil, ErrEmbeddingPending
	}
	monitor.QuerySongLoaded(song)

	matches, err := e.songRepository.FindSimilar(ctx, song.Vector, limit, song.SongID)
	if err != nil {
		e.logger.Error("error querying for similar songs", "songId", songID, "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(matches)

	results := &Recommendations{
		QuerySongID:   song.SongID,
		QuerySongName: song.Name,
		Songs:         make([]RecommendedSong, 0, len(matches)),
	}

	for _, match := range matches {
		hit, err := e.songRepository.Get(ctx, match.SongID)
		if err != nil {
			// The record vanished between the vector query and hydration.
			e.logger.Warn("error hydrating recommendation", "songId", match.SongID, "err", err)
			continue
		}

		results.Songs = append(results.Songs, RecommendedSong{
			SongID:          hit.SongID,
			Name:            hit.Name,
			PrimaryArtist:   hit.PrimaryArtist,
			AlbumName:       hit.AlbumName,
			Language:        hit.Language,
			SimilarityScore: match.Score,
			RawData:         hit.RawData,
		})
		monitor.Hydrated(hit, match.Score)
	}

	results.Total = len(results.Songs)
	monitor.Finish(results)

	return results, nil
}
