// Package app wires the assistant's components from configuration. Every
// entry point builds one App and threads it through; nothing is global.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/imdb-assistant/internal/analytics"
	"github.com/bull/imdb-assistant/internal/chat"
	"github.com/bull/imdb-assistant/internal/config"
	"github.com/bull/imdb-assistant/internal/dataset"
	"github.com/bull/imdb-assistant/internal/embedding"
	"github.com/bull/imdb-assistant/internal/generation"
	"github.com/bull/imdb-assistant/internal/indexer"
	"github.com/bull/imdb-assistant/internal/retrieval"
	"github.com/bull/imdb-assistant/internal/storage"
)

// App holds the components shared by every request.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Table     *dataset.Table
	Store     storage.Store
	Embedder  *embedding.Embedder
	Generator *generation.Generator
	Indexer   *indexer.Pipeline
	Retriever *retrieval.Retriever
	Assistant *chat.Assistant
	Sessions  *chat.SessionStore
	Dashboard analytics.Dashboard
}

// New loads the dataset, connects to the vector store and builds the model
// clients. It does not ingest; call EnsureIndexed for that. Any error here is
// fatal for the process.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("Dataset loaded", "path", table.Path, "records", table.Len(), "checksum", table.Checksum)

	store, err := storage.Open(storage.Options{
		Backend:     cfg.VectorStore,
		QdrantHost:  cfg.QdrantHost,
		QdrantPort:  cfg.QdrantPort,
		DatabaseURL: cfg.DatabaseURL,
		Collection:  cfg.CollectionName,
		Dimension:   cfg.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	logger.Info("Vector store ready", "backend", cfg.VectorStore, "collection", cfg.CollectionName)

	return build(cfg, logger, table, store)
}

// build assembles the pipeline around an already opened store.
func build(cfg *config.Config, logger *slog.Logger, table *dataset.Table, store storage.Store) (*App, error) {
	client, err := embedding.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create model client: %w", err)
	}

	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.BatchSize)
	generator := generation.NewGenerator(client.Client(), cfg.ChatModel)

	var queryEmbedder retrieval.Embedder = embedder
	if cfg.QueryCacheSize > 0 {
		cached, err := retrieval.NewCachedEmbedder(embedder, cfg.QueryCacheSize)
		if err != nil {
			store.Close()
			return nil, err
		}
		queryEmbedder = cached
	}

	retriever := retrieval.NewRetriever(store, queryEmbedder, cfg.TopK, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Table:     table,
		Store:     store,
		Embedder:  embedder,
		Generator: generator,
		Indexer:   indexer.NewPipeline(store, embedder, cfg.BatchSize, cfg.StalePolicy, logger),
		Retriever: retriever,
		Assistant: chat.NewAssistant(retriever, generator, logger),
		Sessions:  chat.NewSessionStore(cfg.SessionTTL),
		Dashboard: analytics.Compute(table.Records),
	}, nil
}

// EnsureIndexed runs the idempotent startup ingestion.
func (a *App) EnsureIndexed(ctx context.Context) (*indexer.IndexResult, error) {
	return a.Indexer.EnsureIndexed(ctx, a.Table)
}

// Status describes the index relative to the loaded dataset.
type Status struct {
	Backend          string `json:"backend"`
	Collection       string `json:"collection"`
	DatasetRecords   int    `json:"dataset_records"`
	DatasetChecksum  string `json:"dataset_checksum"`
	IndexedDocuments uint64 `json:"indexed_documents"`
	IndexedChecksum  string `json:"indexed_checksum"`
	Stale            bool   `json:"stale"`
}

// Status reports document counts and whether the index matches the dataset.
func (a *App) Status(ctx context.Context) (*Status, error) {
	count, err := a.Store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	checksum, err := a.Store.SourceChecksum(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source checksum: %w", err)
	}
	return &Status{
		Backend:          a.Config.VectorStore,
		Collection:       a.Config.CollectionName,
		DatasetRecords:   a.Table.Len(),
		DatasetChecksum:  a.Table.Checksum,
		IndexedDocuments: count,
		IndexedChecksum:  checksum,
		Stale:            count > 0 && checksum != a.Table.Checksum,
	}, nil
}

// Close releases the store connection.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
