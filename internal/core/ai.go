package core

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ai.go -package=mocks github.com/markdave123-py/docscope/internal/core EmbeddingProvider,LLMProvider

import "context"

// EmbeddingProvider turns text into fixed-dimension vectors.
// Implementations return *EmbeddingGenerationError on any failure and never
// a partial batch; the output has the same length and order as the input.
type EmbeddingProvider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
