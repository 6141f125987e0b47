package llm

import (
	"fmt"

	"github.com/keepsake-ai/keepsake/internal/config"
)

// NewTextGenerator creates the TextGenerator for the configured provider,
// wrapped with the outbound rate limiter. The "rules" provider has no LLM
// and returns (nil, nil); callers fall back to rule-based capabilities.
func NewTextGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	var gen TextGenerator
	switch cfg.Provider {
	case "openai":
		gen = NewOpenAIClient(OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        cfg.RequestTimeout,
		})
	case "anthropic":
		gen = NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.RequestTimeout,
		})
	case "ollama":
		gen = NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.RequestTimeout,
		})
	case "rules", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	return WithRateLimit(gen, cfg.RequestsPerSecond), nil
}

// NewEmbeddingGenerator creates the EmbeddingGenerator for the configured
// provider. Returns (nil, nil) for providers without embedding support
// (Anthropic, rules); the long-term tier then degrades to keyword matching.
func NewEmbeddingGenerator(cfg config.LLMConfig) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        cfg.RequestTimeout,
		}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.RequestTimeout,
		}), nil
	default:
		return nil, nil
	}
}
