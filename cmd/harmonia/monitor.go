package main

import (
	"fmt"
	"io"

	"github.com/harmoniahq/harmonia/core"
	"github.com/harmoniahq/harmonia/recommend"
)

// printMonitor writes each recommendation stage to out.
type printMonitor struct {
	out io.Writer
}

var _ recommend.Monitor = (*printMonitor)(nil)

func (m *printMonitor) Start(songID string) {
	fmt.Fprintf(m.out, "query: %s\n", songID)
}

func (m *printMonitor) QuerySongLoaded(song *core.Song) {
	fmt.Fprintf(m.out, "loaded: %q by %q (%d dims)\n", song.Name, song.PrimaryArtist, len(song.Vector))
}

func (m *printMonitor) AfterVectorSearch(matches []*core.SimilarityMatch) {
	fmt.Fprintf(m.out, "vector search: %d matches\n", len(matches))
	for _, match := range matches {
		fmt.Fprintf(m.out, "  %s [%.4f]\n", match.SongID, match.Score)
	}
}

func (m *printMonitor) Hydrated(song *core.Song, score float32) {
	fmt.Fprintf(m.out, "hydrated: %s %q [%.4f]\n", song.SongID, song.Name, score)
}

func (m *printMonitor) Finish(results *recommend.Recommendations) {
	fmt.Fprintf(m.out, "done: %d recommendations\n", results.Total)
}
