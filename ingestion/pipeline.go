package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/harmoniahq/harmonia/ai"
	"github.com/harmoniahq/harmonia/core"
	"github.com/harmoniahq/harmonia/storage"
)

// Pipeline orchestrates the analysis of songs observed in upstream search
// results: embedding their metadata and inserting them into the store.
// It manages concurrent processing through a worker pool.
type Pipeline struct {
	songRepository storage.SongRepository
	embedder       ai.Embedder
	pool           *ants.Pool
	recordTimeout  time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithRecordTimeout bounds the background processing of a single record.
// Each record gets its own deadline; a slow embedding call for one song
// never cancels its siblings. Default is 2 minutes.
func WithRecordTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.recordTimeout = timeout
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	songRepository storage.SongRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if songRepository == nil {
		return nil, ErrSongRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		songRepository: songRepository,
		embedder:       provider.Embedder(),
		pool:           pool,
		recordTimeout:  2 * time.Minute,
		logger:         slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Ingest schedules the given upstream records for background analysis and
// returns immediately. Each record is processed on the worker pool with its
// own timeout. Errors during async processing are logged but never surfaced
// to the caller: a failed embedding skips that one record and nothing else.
func (p *Pipeline) Ingest(ctx context.Context, songs []core.RawSong) {
	for _, raw := range songs {
		if ctx.Err() != nil {
			return
		}

		raw := raw
		if err := p.pool.Submit(func() {
			recordCtx, cancel := context.WithTimeout(context.Background(), p.recordTimeout)
			defer cancel()

			if _, err := p.processSong(recordCtx, raw); err != nil {
				p.logger.Error("error analyzing song", "songId", raw.ID, "err", err)
			}
		}); err != nil {
			p.logger.Error("error submitting song for analysis", "songId", raw.ID, "err", err)
		}
	}
}

// IngestSync processes the given records on the calling goroutine and
// reports how many were newly inserted. Used by the seeding command, which
// wants to observe progress and completion.
func (p *Pipeline) IngestSync(ctx context.Context, songs []core.RawSong) (int, error) {
	inserted := 0
	for _, raw := range songs {
		added, err := p.processSong(ctx, raw)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return inserted, err
			}
			p.logger.Warn("skipping song", "songId", raw.ID, "err", err)
			continue
		}
		if added {
			inserted++
		}
	}
	return inserted, nil
}

// processSong analyzes a single upstream record. It reports whether a new
// song was inserted. A record that is already stored, or that loses an
// insert race, is not an error.
func (p *Pipeline) processSong(ctx context.Context, raw core.RawSong) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if raw.ID == "" {
		p.logger.Warn("upstream record without id, skipping")
		return false, nil
	}

	exists, err := p.songRepository.Exists(ctx, raw.ID)
	if err != nil {
		return false, err
	}
	if exists {
		p.logger.Debug("song already analyzed", "songId", raw.ID)
		return false, nil
	}

	text := ai.SongText(raw.Name, raw.PrimaryArtist, raw.AlbumName, raw.Language)
	vector, err := p.embedder.EmbedText(ctx, text)
	if err != nil {
		return false, err
	}

	song := &core.Song{
		SongID:        raw.ID,
		Name:          raw.Name,
		PrimaryArtist: raw.PrimaryArtist,
		AlbumName:     raw.AlbumName,
		Language:      raw.Language,
		Vector:        vector,
		RawData:       raw.Raw,
	}

	added, err := p.songRepository.InsertIfAbsent(ctx, song)
	if err != nil {
		return false, err
	}
	if !added {
		// Lost the race to a concurrent request. The stored record wins;
		// the vector computed here is discarded.
		p.logger.Debug("song inserted concurrently", "songId", raw.ID)
	}
	return added, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
