package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/harmoniahq/harmonia/provider"
	"github.com/harmoniahq/harmonia/recommend"
	"github.com/harmoniahq/harmonia/storage"
)

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Machine-readable codes for the two 404 causes a client treats
// differently: one means "search for the song first", the other "retry".
const (
	codeSongNotAnalyzed  = "song_not_analyzed"
	codeEmbeddingPending = "embedding_pending"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("error encoding response", "err", err)
	}
}

func (s *Server) writeData(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, envelope{Success: false, Error: message})
}

func (s *Server) writeCodedError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, envelope{Success: false, Error: message, Code: code})
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var upstream *provider.UpstreamError

	switch {
	case errors.Is(err, recommend.ErrSongNotAnalyzed):
		s.writeCodedError(w, http.StatusNotFound, codeSongNotAnalyzed,
			"Song not analyzed yet. Please search for this song first to generate its embedding.")
	case errors.Is(err, recommend.ErrEmbeddingPending):
		s.writeCodedError(w, http.StatusNotFound, codeEmbeddingPending,
			"Song embedding is still being generated. Please retry shortly.")
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Song not found in database")
	case errors.Is(err, storage.ErrVectorIndexMissing):
		s.writeError(w, http.StatusInternalServerError,
			"Vector search failed. Ensure the vector index is provisioned on the storage backend.")
	case errors.Is(err, storage.ErrUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, "Storage backend unavailable")
	case errors.As(err, &upstream):
		s.writeError(w, http.StatusBadGateway, upstream.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		s.logger.Error("unhandled request error", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "harmonia",
	})
}

// handleSearch proxies a song search to the upstream catalogue. The upstream
// body is passed through verbatim; the parsed songs are scheduled for
// background analysis as a side effect.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	page := parseIntParam(r, "page", 0)
	if page < 0 {
		page = 0
	}

	limit := parseIntParam(r, "limit", 10)
	if limit < 1 {
		limit = 1
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	result, err := s.upstream.SearchSongs(r.Context(), query, page, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if len(result.Songs) > 0 {
		// Detached from the request context: analysis continues after the
		// response is written.
		s.pipeline.Ingest(context.Background(), result.Songs)
		s.logger.Info("queued songs for analysis", "count", len(result.Songs), "query", query)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Body); err != nil {
		s.logger.Error("error writing proxied response", "err", err)
	}
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")
	limit := parseIntParam(r, "limit", 0)

	results, err := s.engine.Recommend(r.Context(), songID, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeData(w, results)
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")

	song, err := s.songRepository.Get(r.Context(), songID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeData(w, song)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.songRepository.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeData(w, stats)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
