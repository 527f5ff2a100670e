// Copyright 2026 Harmonia Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/harmoniahq/harmonia/ingestion"
	"github.com/harmoniahq/harmonia/provider"
	"github.com/harmoniahq/harmonia/recommend"
	"github.com/harmoniahq/harmonia/storage"
)

// MaxSearchLimit caps how many upstream results a single proxied search may
// request.
const MaxSearchLimit = 50

// DefaultRequestTimeout bounds foreground request handling. Background
// ingestion has its own, longer per-record timeout.
const DefaultRequestTimeout = 10 * time.Second

var (
	// ErrProviderRequired is returned when an upstream client is not provided.
	ErrProviderRequired = errors.New("upstream provider client required")

	// ErrPipelineRequired is returned when an ingestion pipeline is not provided.
	ErrPipelineRequired = errors.New("ingestion pipeline required")

	// ErrEngineRequired is returned when a recommendation engine is not provided.
	ErrEngineRequired = errors.New("recommendation engine required")

	// ErrSongRepositoryRequired is returned when a song repository is not provided.
	ErrSongRepositoryRequired = errors.New("song repository required")
)

// Server wires the HTTP routes to the upstream client, the ingestion
// pipeline and the recommendation engine.
type Server struct {
	upstream       *provider.Client
	pipeline       *ingestion.Pipeline
	engine         *recommend.Engine
	songRepository storage.SongRepository
	requestTimeout time.Duration
	logger         *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithRequestTimeout bounds each foreground request.
// Default is DefaultRequestTimeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates the HTTP server around its collaborators.
func NewServer(
	upstream *provider.Client,
	pipeline *ingestion.Pipeline,
	engine *recommend.Engine,
	songRepository storage.SongRepository,
	opts ...Option,
) (*Server, error) {
	if upstream == nil {
		return nil, ErrProviderRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if songRepository == nil {
		return nil, ErrSongRepositoryRequired
	}

	s := &Server{
		upstream:       upstream,
		pipeline:       pipeline,
		engine:         engine,
		songRepository: songRepository,
		requestTimeout: DefaultRequestTimeout,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", s.handleHealth)
	r.Get("/healthz", s.handleHealth)
	r.Get("/proxy/search", s.handleSearch)
	r.Get("/recommend/{songID}", s.handleRecommend)
	r.Get("/songs/{songID}", s.handleSong)
	r.Get("/stats", s.handleStats)

	return r
}

// ListenAndServe starts serving on addr and blocks until ctx is cancelled
// or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
