package core

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

// GenerateOptions tunes a single structured-generation call.
type GenerateOptions struct {
	// Temperature overrides the model default when non-nil.
	Temperature *float32
}

// LLMProvider performs one round-trip to a generative provider and returns
// raw JSON bytes shaped by the supplied schema. There is no local retry or
// backoff layer; callers decide whether to resubmit.
type LLMProvider interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts *GenerateOptions) ([]byte, error)
}

// EmbeddingProvider turns texts into vectors (used for saved-audience
// similarity search).
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
