// Package llm provides the shared plumbing for externally supplied model
// capabilities: provider clients, a circuit breaker, and an outbound rate
// limiter. The scoring and PII detection capabilities are built on top of
// the TextGenerator interface defined here.
package llm

import "context"

// TextGenerator is the interface for LLM text completion.
// All capability prompts use single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// EmbeddingGenerator generates vector embeddings for semantic queries on
// the long-term tier.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}
