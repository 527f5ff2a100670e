// Package mock provides test double implementations of the ai interfaces.
//
// The mocks allow tests to run without an external embedding service and
// enable controlled, deterministic behavior: the default MockEmbedder
// derives a fixed-length pseudo-vector from an FNV hash of the text, so the
// same text always embeds to the same vector. Custom behavior is injected
// via the EmbedTextFunc/EmbedTextsFunc fields.
package mock
