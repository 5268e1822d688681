// Package generation sends assembled prompts to a chat model.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// DefaultModel is the chat model answers are generated with.
const DefaultModel = "gemma3:1b"

// ErrEmptyCompletion is returned when the model answers with no choices.
var ErrEmptyCompletion = errors.New("model returned no completion")

// Generator produces raw completions for a single prompt.
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a generator for model using client.
func NewGenerator(client *openai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Model returns the chat model name.
func (g *Generator) Model() string { return g.model }

// Generate sends prompt as a single user message and blocks until the full
// completion is available.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
