package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSongEmbedded(t *testing.T) {
	song := &Song{SongID: "s1", Name: "Believer"}
	assert.False(t, song.Embedded())

	song.Vector = []float32{0.1, 0.2, 0.3}
	assert.True(t, song.Embedded())
}

func TestRawSongPreservesPayload(t *testing.T) {
	payload := json.RawMessage(`{"id":"s1","name":"Believer","extra":{"playCount":42}}`)
	raw := RawSong{ID: "s1", Name: "Believer", Raw: payload}

	// The raw payload must survive untouched for later display.
	assert.JSONEq(t, string(payload), string(raw.Raw))
}
