package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use, and must
// be deterministic for a fixed model: repeat calls on the same text return
// the same vector.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector always has the provider's configured dimensionality.
	// Returns ErrEmptyText if the text is empty after normalization.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider manages the embedding service for convenient initialization and
// lifecycle management. The underlying model client is expensive to set up
// and is created at most once per process; every caller shares it.
type Provider interface {
	// Embedder returns the shared text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Dimensions returns the fixed output width of the embedding model.
	Dimensions() int

	// Close releases resources held by the provider and its services.
	Close() error
}
