package llm

import (
	"context"
	"fmt"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient implements TextGenerator on the Anthropic messages API.
// Anthropic does not provide embeddings; pair it with the OpenAI or Ollama
// client when semantic long-term queries are required.
type AnthropicClient struct {
	client  *anthropic.Client
	model   string
	timeout time.Duration
	breaker *CircuitBreaker
}

// AnthropicConfig holds Anthropic client configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string        // default: claude-3-5-sonnet-20241022
	Timeout time.Duration // default: 15s
}

// NewAnthropicClient creates a new Anthropic-backed client.
func NewAnthropicClient(config AnthropicConfig) *AnthropicClient {
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &AnthropicClient{
		client:  anthropic.NewClient(config.APIKey),
		model:   config.Model,
		timeout: config.Timeout,
		breaker: NewCircuitBreaker(),
	}
}

// Complete sends a single-turn message request and returns the text.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model: anthropic.Model(c.model),
			Messages: []anthropic.Message{
				{
					Role:    anthropic.RoleUser,
					Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(prompt)},
				},
			},
			MaxTokens: 1024,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic completion: %w", err)
		}
		if len(resp.Content) == 0 {
			return nil, fmt.Errorf("anthropic completion: empty response")
		}
		return resp.Content[0].GetText(), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Model returns the completion model name.
func (c *AnthropicClient) Model() string {
	return c.model
}
