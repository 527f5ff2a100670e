package ai

import "errors"

var (
	// ErrEmptyText is returned when there is no text to embed after
	// normalization. The caller decides whether to skip or retry.
	ErrEmptyText = errors.New("text is empty after normalization")

	// ErrDimensionMismatch is returned when the model produced a vector of
	// an unexpected width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
