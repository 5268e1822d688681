// Package embedding turns text into vectors through an OpenAI-compatible API.
package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client. The same client serves embeddings and
// chat completions, so Ollama, vLLM or OpenAI itself all work.
type Client struct {
	client *openai.Client
}

// NewClient creates a client for the endpoint at baseURL. Local runtimes
// ignore the key but the SDK requires a non-empty one. The SDK's automatic
// retries are switched off: a failed call fails the turn.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("LLM base URL not set")
	}
	if apiKey == "" {
		apiKey = "ollama"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages (e.g., generation).
func (c *Client) Client() *openai.Client {
	return c.client
}
