// Package openai implements the ai interfaces using OpenAI-compatible
// embedding APIs via langchaingo. Works with any server that exposes the
// /v1/embeddings endpoint, including local Ollama deployments.
package openai
