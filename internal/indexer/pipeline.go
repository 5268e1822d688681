// Package indexer loads dataset rows into the vector store exactly once.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/imdb-assistant/internal/config"
	"github.com/bull/imdb-assistant/internal/dataset"
	"github.com/bull/imdb-assistant/internal/storage"
)

// DefaultBatchSize is the number of documents submitted per store call.
const DefaultBatchSize = 500

// Store is the part of the vector store the indexer needs.
type Store interface {
	Count(ctx context.Context) (uint64, error)
	UpsertDocuments(ctx context.Context, docs []*storage.Document) error
	SourceChecksum(ctx context.Context) (string, error)
	ClearCollection(ctx context.Context) error
}

// Embedder turns document contents into vectors.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexResult contains statistics about an indexing run.
type IndexResult struct {
	TotalRecords  int
	ExistingCount uint64
	Inserted      int
	Batches       int
	FinalCount    uint64
	Skipped       bool
	Stale         bool
	Rebuilt       bool
	Duration      time.Duration
}

// Pipeline orchestrates rendering, embedding and storing dataset rows.
type Pipeline struct {
	store       Store
	embedder    Embedder
	batchSize   int
	stalePolicy string
	logger      *slog.Logger
}

// NewPipeline creates an indexing pipeline. batchSize <= 0 uses
// DefaultBatchSize; an empty stalePolicy means config.StaleWarn.
func NewPipeline(store Store, embedder Embedder, batchSize int, stalePolicy string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if stalePolicy == "" {
		stalePolicy = config.StaleWarn
	}
	return &Pipeline{
		store:       store,
		embedder:    embedder,
		batchSize:   batchSize,
		stalePolicy: stalePolicy,
		logger:      logger,
	}
}

// EnsureIndexed ingests table when the store is empty and otherwise leaves
// the store alone. A non-empty store whose recorded checksum differs from
// table's is handled per the stale policy: ignored, logged, or rebuilt.
func (p *Pipeline) EnsureIndexed(ctx context.Context, table *dataset.Table) (*IndexResult, error) {
	start := time.Now()

	existing, err := p.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	p.logger.Info("Existing documents in store", "count", existing)

	if existing == 0 {
		result, err := p.ingest(ctx, table)
		if err != nil {
			return nil, err
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	result := &IndexResult{
		TotalRecords:  table.Len(),
		ExistingCount: existing,
		FinalCount:    existing,
		Skipped:       true,
	}

	if p.stalePolicy != config.StaleIgnore {
		indexed, err := p.store.SourceChecksum(ctx)
		if err != nil {
			return nil, fmt.Errorf("read source checksum: %w", err)
		}
		result.Stale = indexed != table.Checksum

		if result.Stale && p.stalePolicy == config.StaleRebuild {
			p.logger.Warn("Dataset changed since last ingestion, rebuilding index",
				"indexed_checksum", indexed, "dataset_checksum", table.Checksum)
			rebuilt, err := p.Reindex(ctx, table)
			if err != nil {
				return nil, err
			}
			rebuilt.ExistingCount = existing
			rebuilt.Stale = true
			rebuilt.Duration = time.Since(start)
			return rebuilt, nil
		}

		if result.Stale {
			p.logger.Warn("Dataset changed since last ingestion; existing index kept",
				"indexed_checksum", indexed, "dataset_checksum", table.Checksum,
				"hint", "set STALE_POLICY=rebuild or run ingest --force")
		}
	}

	p.logger.Info("Using existing embeddings. No re-ingestion needed.")
	result.Duration = time.Since(start)
	return result, nil
}

// Reindex clears the collection and ingests table from scratch.
func (p *Pipeline) Reindex(ctx context.Context, table *dataset.Table) (*IndexResult, error) {
	start := time.Now()

	if err := p.store.ClearCollection(ctx); err != nil {
		return nil, fmt.Errorf("clear collection: %w", err)
	}

	result, err := p.ingest(ctx, table)
	if err != nil {
		return nil, err
	}
	result.Rebuilt = true
	result.Duration = time.Since(start)
	return result, nil
}

// ingest embeds and stores every record in fixed-size batches, in row order,
// one batch at a time.
func (p *Pipeline) ingest(ctx context.Context, table *dataset.Table) (*IndexResult, error) {
	result := &IndexResult{TotalRecords: table.Len()}
	p.logger.Info("Ingesting documents", "records", table.Len(), "batch_size", p.batchSize)

	for i := 0; i < table.Len(); i += p.batchSize {
		end := min(i+p.batchSize, table.Len())

		docs, err := p.prepareBatch(ctx, table, i, end)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}

		if err := p.store.UpsertDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("store batch %d-%d: %w", i, end, err)
		}

		result.Inserted += len(docs)
		result.Batches++
		p.logger.Info("Inserted documents", "from", i, "to", end)
	}

	final, err := p.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	result.FinalCount = final

	p.logger.Info("Ingestion complete",
		"inserted", result.Inserted,
		"batches", result.Batches,
		"final_count", final,
	)
	return result, nil
}

// prepareBatch renders records [from, to) and attaches their embeddings.
func (p *Pipeline) prepareBatch(ctx context.Context, table *dataset.Table, from, to int) ([]*storage.Document, error) {
	records := table.Records[from:to]

	docs := make([]*storage.Document, len(records))
	texts := make([]string, len(records))
	for i, record := range records {
		docs[i] = record.Document(table.Checksum)
		texts[i] = docs[i].Content
	}

	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(embeddings) != len(docs) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d documents", len(embeddings), len(docs))
	}

	for i := range docs {
		docs[i].Embedding = embeddings[i]
	}
	return docs, nil
}
