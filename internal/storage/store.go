// Package storage persists indexed movie documents in a vector store.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Store is the contract every backend implements. Callers only ever count,
// add and search; the on-disk layout belongs to the backend.
type Store interface {
	Health(ctx context.Context) error
	EnsureCollection(ctx context.Context) error
	Count(ctx context.Context) (uint64, error)
	UpsertDocuments(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocument, error)
	SourceChecksum(ctx context.Context) (string, error)
	ClearCollection(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // qdrant, pgvector or memory
	QdrantHost  string
	QdrantPort  int
	DatabaseURL string
	Collection  string
	Dimension   int
}

// Open connects to the configured backend and verifies it is healthy.
func Open(opts Options) (Store, error) {
	if opts.Collection == "" {
		opts.Collection = DefaultCollectionName
	}
	switch opts.Backend {
	case "qdrant", "":
		return NewQdrantStorage(opts.QdrantHost, opts.QdrantPort, opts.Collection, opts.Dimension)
	case "pgvector":
		return NewPgVectorStorage(opts.DatabaseURL, opts.Collection, opts.Dimension)
	case "memory":
		return NewMemoryStorage(opts.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", opts.Backend)
	}
}

// healthCheckWithRetry runs check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func healthCheckWithRetry(ctx context.Context, check func(context.Context) error) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return check(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

func checkDimensions(docs []*Document, dimension int) error {
	for i, doc := range docs {
		if len(doc.Embedding) != dimension {
			return fmt.Errorf("%w: document %d (id %s) has %d dimensions, expected %d",
				ErrDimensionMismatch, i, doc.ID, len(doc.Embedding), dimension)
		}
	}
	return nil
}
