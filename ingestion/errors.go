package ingestion

import "errors"

var (
	// ErrSongRepositoryRequired is returned when a song repository is not provided.
	ErrSongRepositoryRequired = errors.New("song repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
