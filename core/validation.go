package core

import "fmt"

// ValidateSong validates a Song according to domain rules.
//
// Validation rules:
//   - SongID must not be empty
//   - Name must not be empty
//
// NOT validated (populated later or optional upstream):
//   - Vector (absent until the ingestion pipeline embeds the song)
//   - AlbumName, Language (the upstream catalogue may omit them)
//   - RawData (absent for administratively seeded records)
func ValidateSong(song *Song) error {
	if song == nil {
		return fmt.Errorf("%w: song is nil", ErrInvalidSong)
	}

	if song.SongID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSong, ErrEmptySongID)
	}

	if song.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSong, ErrEmptySongName)
	}

	return nil
}
