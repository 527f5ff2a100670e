package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmoniahq/harmonia/ai/mock"
	"github.com/harmoniahq/harmonia/core"
	"github.com/harmoniahq/harmonia/ingestion"
	"github.com/harmoniahq/harmonia/provider"
	"github.com/harmoniahq/harmonia/recommend"
	"github.com/harmoniahq/harmonia/storage"
	"github.com/harmoniahq/harmonia/storage/badger"
)

const upstreamSearchBody = `{
	"success": true,
	"data": {
		"total": 2,
		"start": 0,
		"results": [
			{
				"id": "s1",
				"name": "Believer",
				"language": "english",
				"album": {"name": "Evolve"},
				"artists": {"primary": [{"name": "Imagine Dragons"}]}
			},
			{
				"id": "s2",
				"name": "Thunder",
				"language": "english",
				"album": {"name": "Evolve"},
				"artists": {"primary": [{"name": "Imagine Dragons"}]}
			}
		]
	}
}`

type testFixture struct {
	server   *Server
	handler  http.Handler
	repo     storage.SongRepository
	upstream *httptest.Server
}

func newTestFixture(t *testing.T, upstreamHandler http.HandlerFunc) *testFixture {
	t.Helper()

	upstream := httptest.NewServer(upstreamHandler)
	t.Cleanup(upstream.Close)

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	client, err := provider.NewClient(upstream.URL)
	require.NoError(t, err)

	aiProvider := mock.NewMockProvider()

	pipeline, err := ingestion.NewPipeline(repo, aiProvider)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	engine, err := recommend.NewEngine(repo)
	require.NoError(t, err)

	srv, err := NewServer(client, pipeline, engine, repo)
	require.NoError(t, err)

	return &testFixture{
		server:   srv,
		handler:  srv.Handler(),
		repo:     repo,
		upstream: upstream,
	}
}

func (f *testFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (f *testFixture) waitForSong(t *testing.T, songID string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := f.repo.Get(context.Background(), songID); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("song %s never ingested", songID)
}

func TestHealth(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSearchProxiesBodyVerbatimAndIngests(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/songs", r.URL.Path)
		fmt.Fprint(w, upstreamSearchBody)
	})

	rec := f.get(t, "/proxy/search?query=believer")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, upstreamSearchBody, rec.Body.String())

	// Ingestion is a side effect; both songs appear shortly after.
	f.waitForSong(t, "s1")
	f.waitForSong(t, "s2")
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := f.get(t, "/proxy/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestSearchClampsLimit(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		limit := r.URL.Query().Get("limit")
		assert.Equal(t, "50", limit, "limit must be clamped before reaching the upstream")
		fmt.Fprint(w, `{"success": true, "data": {"results": []}}`)
	})

	rec := f.get(t, "/proxy/search?query=believer&limit=9999")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchUpstreamFailureIsBadGateway(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	rec := f.get(t, "/proxy/search?query=believer")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "503")
}

func TestRecommendUnknownSong(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := f.get(t, "/recommend/never-seen")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["error"], "not analyzed")
	assert.Equal(t, "song_not_analyzed", body["code"])
}

func TestRecommendPendingEmbeddingDistinctFromUnknown(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	added, err := f.repo.InsertIfAbsent(context.Background(), &core.Song{
		SongID: "s1",
		Name:   "Believer",
	})
	require.NoError(t, err)
	require.True(t, added)

	rec := f.get(t, "/recommend/s1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["error"], "still being generated")
	assert.Equal(t, "embedding_pending", body["code"])
}

func TestRecommendAfterIngestion(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, upstreamSearchBody)
	})

	f.get(t, "/proxy/search?query=believer")
	f.waitForSong(t, "s1")
	f.waitForSong(t, "s2")

	rec := f.get(t, "/recommend/s1")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "s1", data["query_song_id"])
	assert.Equal(t, "Believer", data["query_song_name"])

	recommendations, ok := data["recommendations"].([]any)
	require.True(t, ok)
	require.Len(t, recommendations, 1)

	hit, ok := recommendations[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "s2", hit["song_id"])
	assert.NotNil(t, hit["similarity_score"])
}

func TestOverlappingSearchesStoreOneRecordPerSong(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, upstreamSearchBody)
	})

	// Two identical searches in quick succession, before the first batch
	// has finished analyzing.
	f.get(t, "/proxy/search?query=believer")
	f.get(t, "/proxy/search?query=believer")

	f.waitForSong(t, "s1")
	f.waitForSong(t, "s2")

	// Give any straggling duplicate work a moment to land.
	time.Sleep(100 * time.Millisecond)

	stats, err := f.repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSongs)
}

func TestSongDetails(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, upstreamSearchBody)
	})

	f.get(t, "/proxy/search?query=believer")
	f.waitForSong(t, "s1")

	rec := f.get(t, "/songs/s1")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Believer", data["name"])
	assert.Equal(t, "Imagine Dragons", data["primary_artist"])

	rec = f.get(t, "/songs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	f := newTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, upstreamSearchBody)
	})

	f.get(t, "/proxy/search?query=believer")
	f.waitForSong(t, "s1")
	f.waitForSong(t, "s2")

	rec := f.get(t, "/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, data["total_songs"])

	dist, ok := data["language_distribution"].([]any)
	require.True(t, ok)
	require.Len(t, dist, 1)

	bucket, ok := dist[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "english", bucket["language"])
	assert.EqualValues(t, 2, bucket["count"])
}
