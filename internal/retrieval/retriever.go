// Package retrieval finds the dataset records most similar to a question.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bull/imdb-assistant/internal/storage"
)

// DefaultTopK is the number of records handed to the model per question.
const DefaultTopK = 10

// ErrEmptyQuery is returned when the question is blank.
var ErrEmptyQuery = errors.New("query is empty")

// Searcher is the part of the vector store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, limit int) ([]*storage.ScoredDocument, error)
}

// Embedder embeds the question with the same model used at ingestion.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns the contents of the top-k nearest documents.
type Retriever struct {
	store    Searcher
	embedder Embedder
	k        int
	logger   *slog.Logger
}

// NewRetriever creates a retriever. k <= 0 uses DefaultTopK.
func NewRetriever(store Searcher, embedder Embedder, k int, logger *slog.Logger) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, embedder: embedder, k: k, logger: logger}
}

// K returns the configured result count.
func (r *Retriever) K() int { return r.k }

// SearchScored returns up to k documents ordered by descending similarity.
// An empty store yields an empty slice and no error.
func (r *Retriever) SearchScored(ctx context.Context, query string) ([]*storage.ScoredDocument, error) {
	return r.SearchN(ctx, query, r.k)
}

// SearchN is SearchScored with an explicit limit.
func (r *Retriever) SearchN(ctx context.Context, query string, limit int) ([]*storage.ScoredDocument, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = r.k
	}

	embeddings, err := r.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors, expected 1", len(embeddings))
	}

	docs, err := r.store.Search(ctx, embeddings[0], limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	r.logger.Debug("retrieved documents", "query", query, "hits", len(docs), "limit", limit)
	if docs == nil {
		docs = []*storage.ScoredDocument{}
	}
	return docs, nil
}

// Search returns the text contents of the top-k documents, most similar first.
func (r *Retriever) Search(ctx context.Context, query string) ([]string, error) {
	docs, err := r.SearchScored(ctx, query)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	return contents, nil
}
