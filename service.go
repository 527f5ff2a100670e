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


package harmonia

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harmoniahq/harmonia/ai"
	"github.com/harmoniahq/harmonia/ai/openai"
	"github.com/harmoniahq/harmonia/ingestion"
	"github.com/harmoniahq/harmonia/provider"
	"github.com/harmoniahq/harmonia/recommend"
	"github.com/harmoniahq/harmonia/server"
	"github.com/harmoniahq/harmonia/storage"
	"github.com/harmoniahq/harmonia/storage/badger"
	"github.com/harmoniahq/harmonia/storage/postgres"
)

// ErrUpstreamURLRequired is returned when a service is built without the
// upstream catalogue's base URL.
var ErrUpstreamURLRequired = errors.New("upstream base URL required")

// Service bundles the storage backend, the embedding provider and the
// upstream catalogue client, and builds the pipeline, engine and HTTP
// server around them.
type Service struct {
	backend  *badger.Backend // nil when running on postgres
	songRepo storage.SongRepository
	provider ai.Provider
	upstream *provider.Client
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig     *ai.Config
	postgresDSN  string
	inMemory     bool
	cacheTTL     time.Duration
	upstreamOpts []provider.Option
}

// WithAIConfig overrides the embedding provider configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithPostgres stores songs in PostgreSQL with pgvector similarity search
// instead of the embedded badger backend.
func WithPostgres(dsn string) ServiceOption {
	return func(o *serviceOptions) {
		o.postgresDSN = dsn
	}
}

// WithInMemoryStorage runs the badger backend without a disk path.
// Intended for tests and experiments; everything is lost on close.
func WithInMemoryStorage() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithSearchCacheTTL caches upstream search responses for the given
// duration. Zero disables caching. Only effective on the badger backend.
func WithSearchCacheTTL(ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.cacheTTL = ttl
	}
}

// WithUpstreamOptions passes extra options to the upstream catalogue client.
func WithUpstreamOptions(opts ...provider.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.upstreamOpts = append(o.upstreamOpts, opts...)
	}
}

// NewService opens the storage backend and connects the collaborators.
// filePath is the badger directory, ignored when WithPostgres is given.
func NewService(filePath, upstreamURL string, opts ...ServiceOption) (*Service, error) {
	if upstreamURL == "" {
		return nil, ErrUpstreamURLRequired
	}

	// Apply options
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var (
		backend  *badger.Backend
		songRepo storage.SongRepository
		err      error
	)

	if options.postgresDSN != "" {
		songRepo, err = postgres.Open(options.postgresDSN, options.aiConfig.Dimensions)
		if err != nil {
			return nil, err
		}
	} else {
		backend, err = badger.OpenBackend(filePath, options.inMemory)
		if err != nil {
			return nil, err
		}

		songRepo, err = badger.NewSongRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	// Upstream search responses can be cached on the badger backend.
	upstreamOpts := options.upstreamOpts
	if backend != nil && options.cacheTTL > 0 {
		cache, cacheErr := badger.NewQueryCache(backend, options.cacheTTL)
		if cacheErr != nil {
			songRepo.Close()
			backend.Close()
			return nil, cacheErr
		}
		upstreamOpts = append(upstreamOpts, provider.WithCache(cache))
	}

	upstream, err := provider.NewClient(upstreamURL, upstreamOpts...)
	if err != nil {
		songRepo.Close()
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}

	aiProvider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		songRepo.Close()
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}

	return &Service{
		backend:  backend,
		songRepo: songRepo,
		provider: aiProvider,
		upstream: upstream,
		logger:   slog.Default(),
	}, nil
}

// EnsureSchema provisions the postgres schema. No-op on badger.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if store, ok := s.songRepo.(*postgres.Store); ok {
		return store.EnsureSchema(ctx)
	}
	return nil
}

func (s *Service) Close() error {
	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.songRepo.Close(); err != nil {
		s.logger.Error("error closing song repository", "err", err)
		return err
	}

	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

func (s *Service) SongRepository() storage.SongRepository {
	return s.songRepo
}

func (s *Service) UpstreamClient() *provider.Client {
	return s.upstream
}

func (s *Service) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.songRepo, s.provider, opts...)
}

func (s *Service) NewRecommendEngine(opts ...recommend.Option) (*recommend.Engine, error) {
	return recommend.NewEngine(s.songRepo, opts...)
}

// NewServer builds the full HTTP surface with a fresh pipeline and engine.
func (s *Service) NewServer(opts ...server.Option) (*server.Server, *ingestion.Pipeline, error) {
	pipeline, err := s.NewIngestionPipeline()
	if err != nil {
		return nil, nil, err
	}

	engine, err := s.NewRecommendEngine()
	if err != nil {
		pipeline.Release()
		return nil, nil, err
	}

	srv, err := server.NewServer(s.upstream, pipeline, engine, s.songRepo, opts...)
	if err != nil {
		pipeline.Release()
		return nil, nil, err
	}

	return srv, pipeline, nil
}
