package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaClient implements TextGenerator and EmbeddingGenerator against a
// local Ollama instance. All HTTP calls are wrapped with circuit breaker
// protection to prevent cascading failures.
type OllamaClient struct {
	baseURL string
	client  *http.Client
	breaker *CircuitBreaker
	model   string
}

// OllamaConfig holds Ollama client configuration.
type OllamaConfig struct {
	// BaseURL is the base URL for the Ollama API (default: http://localhost:11434)
	BaseURL string

	// Model is the model name used for completions and embeddings (default: qwen2.5:7b)
	Model string

	// Timeout is the request timeout duration (default: 15s)
	Timeout time.Duration
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// The embeddings field is a 2D array; we always use the first embedding.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaClient creates a new Ollama client with the given configuration.
func NewOllamaClient(config OllamaConfig) *OllamaClient {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "qwen2.5:7b"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &OllamaClient{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: NewCircuitBreaker(),
		model:   config.Model,
	}
}

// Complete sends a completion request to Ollama and returns the response text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		body, err := json.Marshal(ollamaGenerateRequest{
			Model:  c.model,
			Prompt: prompt,
			Stream: false,
		})
		if err != nil {
			return nil, fmt.Errorf("ollama: failed to marshal request: %w", err)
		}

		var resp ollamaGenerateResponse
		if err := c.post(ctx, "/api/generate", body, &resp); err != nil {
			return nil, err
		}
		return resp.Response, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Embed generates an embedding vector for the given text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Input: text})
		if err != nil {
			return nil, fmt.Errorf("ollama: failed to marshal request: %w", err)
		}

		var resp ollamaEmbedResponse
		if err := c.post(ctx, "/api/embed", body, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("ollama: empty embeddings response")
		}
		return resp.Embeddings[0], nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Model returns the model name.
func (c *OllamaClient) Model() string {
	return c.model
}

func (c *OllamaClient) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ollama: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ollama: unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: failed to decode response: %w", err)
	}
	return nil
}
