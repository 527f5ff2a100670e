package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSong(t *testing.T) {
	tests := []struct {
		name    string
		song    *Song
		wantErr error
	}{
		{
			name: "valid song",
			song: &Song{SongID: "s1", Name: "Believer", PrimaryArtist: "Imagine Dragons"},
		},
		{
			name: "minimal song without artist",
			song: &Song{SongID: "s2", Name: "Thunder"},
		},
		{
			name:    "nil song",
			song:    nil,
			wantErr: ErrInvalidSong,
		},
		{
			name:    "missing id",
			song:    &Song{Name: "Believer"},
			wantErr: ErrEmptySongID,
		},
		{
			name:    "missing name",
			song:    &Song{SongID: "s1"},
			wantErr: ErrEmptySongName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSong(tt.song)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidSong)
		})
	}
}
