package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmoniahq/harmonia/ai"
	"github.com/harmoniahq/harmonia/ai/mock"
	"github.com/harmoniahq/harmonia/core"
	"github.com/harmoniahq/harmonia/storage"
	"github.com/harmoniahq/harmonia/storage/badger"
)

func newTestPipeline(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Pipeline, storage.SongRepository) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	provider := mock.NewMockProviderWithEmbedder(embedder)

	pipeline, err := NewPipeline(repo, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo
}

func rawSong(id, name string) core.RawSong {
	return core.RawSong{
		ID:            id,
		Name:          name,
		PrimaryArtist: "Imagine Dragons",
		AlbumName:     "Evolve",
		Language:      "english",
		Raw:           []byte(`{"id":"` + id + `"}`),
	}
}

func waitForSong(t *testing.T, repo storage.SongRepository, songID string) *core.Song {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		song, err := repo.Get(context.Background(), songID)
		if err == nil {
			return song
		}
		require.ErrorIs(t, err, storage.ErrNotFound)
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("song %s never appeared in the store", songID)
	return nil
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	_, err = NewPipeline(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrSongRepositoryRequired)

	_, err = NewPipeline(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestIngestStoresSongWithVector(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, repo := newTestPipeline(t, embedder)

	pipeline.Ingest(context.Background(), []core.RawSong{rawSong("s1", "Believer")})

	song := waitForSong(t, repo, "s1")
	assert.Equal(t, "Believer", song.Name)
	assert.Equal(t, "Imagine Dragons", song.PrimaryArtist)
	assert.Len(t, song.Vector, ai.DefaultDimensions)
	assert.True(t, song.Embedded())
	assert.NotEmpty(t, song.RawData)
}

func TestIngestSyncIdempotent(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, repo := newTestPipeline(t, embedder)

	songs := []core.RawSong{rawSong("s1", "Believer"), rawSong("s2", "Thunder")}

	inserted, err := pipeline.IngestSync(context.Background(), songs)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	first, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)

	// Second pass must not insert, re-embed, or touch stored records.
	calls := embedder.CallCount()
	inserted, err = pipeline.IngestSync(context.Background(), songs)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, calls, embedder.CallCount(), "already-analyzed songs must not be re-embedded")

	second, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, first.InsertedAt, second.InsertedAt)
	assert.Equal(t, first.Vector, second.Vector)
}

func TestIngestSyncConcurrentSameBatch(t *testing.T) {
	var mu sync.Mutex
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		vector := make([]float32, ai.DefaultDimensions)
		vector[0] = 1
		return vector, nil
	}

	pipeline, repo := newTestPipeline(t, embedder)

	songs := []core.RawSong{rawSong("s1", "Believer")}

	const workers = 8
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := pipeline.IngestSync(context.Background(), songs)
			assert.NoError(t, err)
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for inserted := range results {
		total += inserted
	}
	assert.Equal(t, 1, total, "exactly one concurrent ingestion may win")

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSongs)
}

func TestIngestSyncEmbeddingFailureSkipsOnlyThatRecord(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == ai.SongText("Broken", "Imagine Dragons", "Evolve", "english") {
			return nil, errors.New("model unavailable")
		}
		vector := make([]float32, ai.DefaultDimensions)
		vector[0] = 1
		return vector, nil
	}

	pipeline, repo := newTestPipeline(t, embedder)

	inserted, err := pipeline.IngestSync(context.Background(), []core.RawSong{
		rawSong("s1", "Believer"),
		rawSong("s2", "Broken"),
		rawSong("s3", "Thunder"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	_, err = repo.Get(context.Background(), "s2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.Get(context.Background(), "s3")
	assert.NoError(t, err)
}

func TestIngestSyncSkipsRecordWithoutID(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, repo := newTestPipeline(t, embedder)

	inserted, err := pipeline.IngestSync(context.Background(), []core.RawSong{
		{Name: "No ID"},
		rawSong("s1", "Believer"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSongs)
}

func TestIngestSyncStopsOnCancelledContext(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	pipeline, repo := newTestPipeline(t, embedder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.IngestSync(ctx, []core.RawSong{rawSong("s1", "Believer")})
	assert.Error(t, err)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSongs)
}
