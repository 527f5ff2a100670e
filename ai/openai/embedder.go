package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/harmoniahq/harmonia/ai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// The underlying client is built lazily on first use, exactly once, and
// shared by every caller thereafter.
type Embedder struct {
	config *ai.Config
	logger *slog.Logger

	initOnce sync.Once
	embedder embeddings.Embedder
	initErr  error
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		config: config,
		logger: slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// init builds the langchaingo client. Guarded so initialization happens at
// most once per process regardless of how many goroutines embed
// concurrently.
func (e *Embedder) init() error {
	e.initOnce.Do(func() {
		e.logger.Info("initializing embedding client",
			"host", e.config.EmbeddingHost, "model", e.config.EmbeddingModel)

		// Use "none" as token for local OpenAI-compatible services that
		// don't require authentication.
		client, err := openai.New(
			openai.WithBaseURL(e.config.EmbeddingHost),
			openai.WithToken("none"),
			openai.WithEmbeddingModel(e.config.EmbeddingModel),
		)
		if err != nil {
			e.initErr = err
			return
		}

		embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
		if err != nil {
			e.initErr = err
			return
		}

		e.embedder = embedder
	})
	return e.initErr
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ai.ErrEmptyText
		}
	}

	if err := e.init(); err != nil {
		return nil, err
	}

	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
	}
	for _, vector := range vectors {
		if len(vector) != e.config.Dimensions {
			return nil, fmt.Errorf("%w: expected %d, received %d",
				ai.ErrDimensionMismatch, e.config.Dimensions, len(vector))
		}
	}

	return vectors, nil
}
