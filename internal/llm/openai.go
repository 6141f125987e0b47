package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements TextGenerator and EmbeddingGenerator on the
// OpenAI chat completions and embeddings APIs. All calls go through the
// shared circuit breaker.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
	timeout        time.Duration
	breaker        *CircuitBreaker
}

// OpenAIConfig holds OpenAI client configuration.
type OpenAIConfig struct {
	APIKey         string
	Model          string        // default: gpt-4o-mini
	EmbeddingModel string        // default: text-embedding-3-small
	Timeout        time.Duration // default: 15s
}

// NewOpenAIClient creates a new OpenAI-backed client.
func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-3-small"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClient(config.APIKey),
		model:          config.Model,
		embeddingModel: config.EmbeddingModel,
		timeout:        config.Timeout,
		breaker:        NewCircuitBreaker(),
	}
}

// Complete sends a single-turn completion request and returns the text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0,
		})
		if err != nil {
			return nil, fmt.Errorf("openai completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai completion: empty response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Embed generates an embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("openai embeddings: empty response")
		}
		return resp.Data[0].Embedding, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Model returns the completion model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
