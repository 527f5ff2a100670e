package core

import (
	"encoding/json"
	"time"
)

// Song represents a single song known to the store.
// It is created the first time the song is observed from the upstream
// catalogue and enriched with an embedding vector exactly once.
type Song struct {
	SongID        string          `json:"song_id"`
	Name          string          `json:"name"`
	PrimaryArtist string          `json:"primary_artist"`
	AlbumName     string          `json:"album_name,omitempty"`
	Language      string          `json:"language,omitempty"`
	Vector        []float32       `json:"embedding,omitempty"` // Embedding vector for similarity search
	RawData       json.RawMessage `json:"raw_data,omitempty"`  // Verbatim upstream record, preserved for display
	InsertedAt    time.Time       `json:"inserted_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Embedded reports whether the song has been enriched with a vector.
func (s *Song) Embedded() bool {
	return len(s.Vector) > 0
}

// RawSong holds the fields extracted from a single upstream search result,
// together with the unmodified JSON it was parsed from. Only the provider
// client understands the upstream schema; everything downstream works with
// this reduced form.
type RawSong struct {
	ID            string
	Name          string
	PrimaryArtist string
	AlbumName     string
	Language      string
	Raw           json.RawMessage
}

// SimilarityMatch is a single hit from a vector similarity query.
type SimilarityMatch struct {
	SongID string
	Score  float32 // Cosine similarity as reported by the backend
}
