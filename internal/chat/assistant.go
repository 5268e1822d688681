package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/imdb-assistant/internal/prompt"
	"github.com/bull/imdb-assistant/internal/response"
)

// ErrEmptyQuestion is returned for blank input.
var ErrEmptyQuestion = errors.New("question is empty")

// Retriever returns the contents of the records most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Generator returns the model's raw completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reply is the outcome of one turn.
type Reply struct {
	Content  string               `json:"content"`
	Cards    []response.MovieCard `json:"cards"`
	Fallback bool                 `json:"fallback"`
	Sources  int                  `json:"sources"`
	Duration time.Duration        `json:"duration_ns"`
}

// Assistant runs retrieval, prompt assembly, generation and parsing for a turn.
type Assistant struct {
	retriever Retriever
	generator Generator
	logger    *slog.Logger
}

// NewAssistant creates an assistant over shared clients.
func NewAssistant(retriever Retriever, generator Generator, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{retriever: retriever, generator: generator, logger: logger}
}

// Respond appends question to the session, answers it and appends the raw
// answer. When retrieval finds nothing the fallback sentence is the answer and
// the generator is not called. On error the user turn stays in the history and
// no assistant turn is added.
func (a *Assistant) Respond(ctx context.Context, session *Session, question string) (*Reply, error) {
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	start := time.Now()
	session.append(Turn{Role: RoleUser, Content: question})

	records, err := a.retriever.Search(ctx, question)
	if err != nil {
		a.logger.Error("retrieval failed", "session", session.ID, "error", err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(records) == 0 {
		a.logger.Info("no records retrieved, answering with fallback", "session", session.ID)
		session.append(Turn{Role: RoleAssistant, Content: prompt.Fallback})
		session.setCards(nil)
		return &Reply{
			Content:  prompt.Fallback,
			Cards:    []response.MovieCard{},
			Fallback: true,
			Duration: time.Since(start),
		}, nil
	}

	raw, err := a.generator.Generate(ctx, prompt.Build(records, question))
	if err != nil {
		a.logger.Error("generation failed", "session", session.ID, "error", err)
		return nil, fmt.Errorf("generate: %w", err)
	}

	cards := response.Parse(raw)
	if cards == nil {
		cards = []response.MovieCard{}
	}
	session.append(Turn{Role: RoleAssistant, Content: raw})
	session.setCards(cards)

	reply := &Reply{
		Content:  raw,
		Cards:    cards,
		Sources:  len(records),
		Duration: time.Since(start),
	}
	a.logger.Info("turn complete",
		"session", session.ID,
		"sources", reply.Sources,
		"cards", len(cards),
		"duration", reply.Duration,
	)
	return reply, nil
}
