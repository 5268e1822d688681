package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/imdb-assistant/internal/analytics"
	"github.com/bull/imdb-assistant/internal/chat"
	"github.com/bull/imdb-assistant/internal/storage"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Searcher returns scored documents for a query.
type Searcher interface {
	SearchN(ctx context.Context, query string, limit int) ([]*storage.ScoredDocument, error)
}

// Assistant answers one question within a session.
type Assistant interface {
	Respond(ctx context.Context, session *chat.Session, question string) (*chat.Reply, error)
}

// Counter reports the number of indexed documents.
type Counter interface {
	Count(ctx context.Context) (uint64, error)
}

// makeSearchHandler creates the search_movies tool handler. It returns the
// raw retrieved records without calling the chat model.
func makeSearchHandler(searcher Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchMoviesInput,
) (*mcp.CallToolResult, SearchMoviesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchMoviesInput) (
		*mcp.CallToolResult, SearchMoviesOutput, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultLimit
		}
		limit = min(limit, maxLimit)

		docs, err := searcher.SearchN(ctx, input.Query, limit)
		if err != nil {
			return nil, SearchMoviesOutput{}, fmt.Errorf("search failed: %w", err)
		}

		if len(docs) == 0 {
			return nil, SearchMoviesOutput{
				Results: []MovieHit{},
				Message: "No matching movies found. Has the dataset been ingested?",
			}, nil
		}

		results := make([]MovieHit, len(docs))
		for i, doc := range docs {
			results[i] = MovieHit{
				ID:      doc.ID,
				Title:   doc.Metadata.Title,
				Year:    doc.Metadata.Year,
				Rating:  doc.Metadata.Rating,
				Score:   doc.Score,
				Content: doc.Content,
			}
		}
		return nil, SearchMoviesOutput{Results: results}, nil
	}
}

// makeAskHandler creates the ask_movies tool handler. Every call is a single
// turn on a fresh session.
func makeAskHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, AskMoviesInput,
) (*mcp.CallToolResult, AskMoviesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskMoviesInput) (
		*mcp.CallToolResult, AskMoviesOutput, error,
	) {
		reply, err := assistant.Respond(ctx, chat.NewSession(), input.Question)
		if err != nil {
			return nil, AskMoviesOutput{}, fmt.Errorf("failed to answer: %w", err)
		}

		return nil, AskMoviesOutput{
			Answer:   reply.Content,
			Cards:    reply.Cards,
			Fallback: reply.Fallback,
			Sources:  reply.Sources,
		}, nil
	}
}

// makeStatsHandler creates the dataset_stats tool handler.
func makeStatsHandler(dashboard analytics.Dashboard, counter Counter) func(
	context.Context, *mcp.CallToolRequest, DatasetStatsInput,
) (*mcp.CallToolResult, DatasetStatsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DatasetStatsInput) (
		*mcp.CallToolResult, DatasetStatsOutput, error,
	) {
		count, err := counter.Count(ctx)
		if err != nil {
			return nil, DatasetStatsOutput{}, fmt.Errorf("store_error: failed to count documents: %w", err)
		}

		return nil, DatasetStatsOutput{
			Dashboard:        dashboard,
			IndexedDocuments: count,
		}, nil
	}
}
