package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/harmoniahq/harmonia/core"
	"github.com/harmoniahq/harmonia/storage"
)

var (
	registerOnce sync.Once
	driverName   string
	registerErr  error
)

// registerDriver wraps the postgres driver with otelsql instrumentation.
// Registration happens once per process.
func registerDriver() (string, error) {
	registerOnce.Do(func() {
		driverName, registerErr = otelsql.Register(
			"postgres",
			otelsql.TraceQueryWithoutArgs(),
			otelsql.TraceRowsClose(),
			otelsql.TraceRowsAffected(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		)
	})
	return driverName, registerErr
}

// Store implements storage.SongRepository on PostgreSQL with the pgvector
// extension. The vector index lives in the database and is provisioned
// out-of-band; its absence is reported as storage.ErrVectorIndexMissing.
type Store struct {
	conn       *sql.DB
	dimensions int
	logger     *slog.Logger
}

var _ storage.SongRepository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to PostgreSQL and verifies the connection.
// dimensions is the fixed embedding width used by the songs table schema.
//
// Returns storage.SongRepository interface to enforce abstraction.
func Open(dsn string, dimensions int, opts ...Option) (storage.SongRepository, error) {
	if dimensions < 1 {
		return nil, errors.New("embedding dimensions must be positive")
	}

	name, err := registerDriver()
	if err != nil {
		return nil, fmt.Errorf("register instrumented driver: %w", err)
	}

	conn, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	if err := otelsql.RecordStats(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("record connection stats: %w", err)
	}

	s := &Store{
		conn:       conn,
		dimensions: dimensions,
		logger:     slog.Default().With("component", "postgres-store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// EnsureSchema creates the songs table and its secondary language index.
// The pgvector extension and the similarity index itself are administrative
// concerns handled outside this process; a missing vector type surfaces as
// storage.ErrVectorIndexMissing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS songs (
			song_id        TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			primary_artist TEXT NOT NULL DEFAULT '',
			album_name     TEXT NOT NULL DEFAULT '',
			language       TEXT NOT NULL DEFAULT '',
			embedding      vector(%d),
			raw_data       JSONB,
			inserted_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, s.dimensions)

	if _, err := s.conn.ExecContext(ctx, createTable); err != nil {
		return s.mapError(err)
	}

	if _, err := s.conn.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS songs_language_idx ON songs (language)`); err != nil {
		return s.mapError(err)
	}

	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Exists reports whether a song with the given id is already stored.
func (s *Store) Exists(ctx context.Context, songID string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM songs WHERE song_id = $1)`, songID).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}
	return exists, nil
}

// InsertIfAbsent stores the song only if its id is not already present.
// ON CONFLICT DO NOTHING makes the check-and-insert atomic in the database,
// which holds across multiple process instances.
func (s *Store) InsertIfAbsent(ctx context.Context, song *core.Song) (bool, error) {
	if err := core.ValidateSong(song); err != nil {
		return false, err
	}

	var embedding any
	if song.Embedded() {
		embedding = pgvector.NewVector(song.Vector)
	}

	var rawData any
	if len(song.RawData) > 0 {
		rawData = []byte(song.RawData)
	}

	now := time.Now().UTC()
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO songs (song_id, name, primary_artist, album_name, language, embedding, raw_data, inserted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (song_id) DO NOTHING
	`, song.SongID, song.Name, song.PrimaryArtist, song.AlbumName, song.Language, embedding, rawData, now)
	if err != nil {
		return false, s.mapError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, s.mapError(err)
	}

	return affected > 0, nil
}

// Get retrieves a song by id.
func (s *Store) Get(ctx context.Context, songID string) (*core.Song, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT song_id, name, primary_artist, album_name, language, embedding::text, raw_data, inserted_at, updated_at
		FROM songs
		WHERE song_id = $1
	`, songID)

	song, err := scanSong(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, s.mapError(err)
	}

	return song, nil
}

// FindSimilar ranks stored songs by cosine similarity to the given vector
// using the pgvector distance operator; ordering and tie-breaks are the
// index's native order, passed through untouched.
func (s *Store) FindSimilar(ctx context.Context, vector []float32, limit int, excludeID string) ([]*core.SimilarityMatch, error) {
	if limit < 1 {
		return nil, nil
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT song_id, 1 - (embedding <=> $1) AS score
		FROM songs
		WHERE embedding IS NOT NULL AND song_id <> $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(vector), excludeID, limit)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var matches []*core.SimilarityMatch
	for rows.Next() {
		match := &core.SimilarityMatch{}
		if err := rows.Scan(&match.SongID, &match.Score); err != nil {
			return nil, s.mapError(err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return matches, nil
}

// Stats returns the total count and the per-language distribution.
func (s *Store) Stats(ctx context.Context) (*storage.StoreStats, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT language, COUNT(*) AS count
		FROM songs
		GROUP BY language
		ORDER BY count DESC, language ASC
	`)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	stats := &storage.StoreStats{}
	for rows.Next() {
		var lc storage.LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return nil, s.mapError(err)
		}
		stats.Languages = append(stats.Languages, lc)
		stats.TotalSongs += lc.Count
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return stats, nil
}

// scanSong scans one songs row into a core.Song.
func scanSong(scan func(dest ...any) error) (*core.Song, error) {
	var (
		song      core.Song
		embedding sql.NullString
		rawData   []byte
	)

	err := scan(&song.SongID, &song.Name, &song.PrimaryArtist, &song.AlbumName,
		&song.Language, &embedding, &rawData, &song.InsertedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if embedding.Valid {
		var vec pgvector.Vector
		if err := vec.Scan(embedding.String); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		song.Vector = vec.Slice()
	}

	if len(rawData) > 0 {
		song.RawData = rawData
	}

	return &song, nil
}

// pq error codes that mean the vector extension has not been provisioned.
const (
	pqUndefinedObject   = "42704" // unknown type: vector
	pqUndefinedFunction = "42883" // unknown operator: <=>
)

// mapError translates driver errors into the storage taxonomy.
func (s *Store) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUndefinedObject, pqUndefinedFunction:
			return fmt.Errorf("%w: %w", storage.ErrVectorIndexMissing, err)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %w", storage.ErrDuplicateKey, err)
		}
		// Class 08 covers connection exceptions.
		if len(pqErr.Code) >= 2 && pqErr.Code[:2] == "08" {
			return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	return err
}
