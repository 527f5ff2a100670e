package recommend

import "github.com/harmoniahq/harmonia/core"

// Monitor provides hooks to observe the recommendation process.
// Implement this interface to track intermediate steps during a query.
type Monitor interface {
	Start(songID string)
	QuerySongLoaded(song *core.Song)
	AfterVectorSearch(matches []*core.SimilarityMatch)
	Hydrated(song *core.Song, score float32)
	Finish(results *Recommendations)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) QuerySongLoaded(_ *core.Song)                {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.SimilarityMatch) {}
func (n *noopMonitor) Hydrated(_ *core.Song, _ float32)            {}
func (n *noopMonitor) Finish(_ *Recommendations)                   {}
