package storage

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/harmoniahq/harmonia/core"
)

// MarshalSong serializes a Song to bytes for storage.
// Values are JSON rather than a fixed binary schema because RawData is an
// opaque copy of whatever the upstream catalogue returned.
func MarshalSong(song *core.Song) ([]byte, error) {
	data, err := json.Marshal(song)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSong deserializes a Song from bytes.
func UnmarshalSong(data []byte) (*core.Song, error) {
	var song core.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &song, nil
}
