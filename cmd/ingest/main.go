// Package main provides the ingestion CLI for the movie assistant.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/imdb-assistant/internal/app"
	"github.com/bull/imdb-assistant/internal/config"
	"github.com/bull/imdb-assistant/internal/dataset"
	ghclient "github.com/bull/imdb-assistant/internal/github"
	"github.com/bull/imdb-assistant/internal/logging"
)

var (
	datasetPath string
	force       bool
	jsonOutput  bool

	fetchOwner string
	fetchRepo  string
	fetchPath  string
	fetchRef   string
	fetchOut   string
)

var rootCmd = &cobra.Command{
	Use:   "imdb-ingest",
	Short: "IMDB movie assistant indexing tool",
	Long:  "CLI tool for loading the IMDB top 1000 dataset into the vector store",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed the dataset into the vector store",
	Long: `Loads the dataset and ingests it when the collection is empty.

With --force the collection is cleared and rebuilt from the dataset,
whatever it currently holds.

Environment variables:
  DATASET_PATH     CSV file (default: ./imdb_top_1000.csv)
  VECTOR_STORE     qdrant, pgvector or memory (default: qdrant)
  QDRANT_HOST      Qdrant hostname (default: localhost)
  QDRANT_PORT      Qdrant gRPC port (default: 6334)
  DATABASE_URL     Postgres DSN when VECTOR_STORE=pgvector
  LLM_BASE_URL     OpenAI-compatible endpoint (default: http://localhost:11434/v1)
  EMBEDDING_MODEL  embedding model (default: mxbai-embed-large)
  STALE_POLICY     ignore, warn or rebuild (default: warn)`,
	RunE: runIngest,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the index size and whether it matches the dataset",
	RunE:  runStatus,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch-dataset",
	Short: "Download the dataset CSV from a GitHub repository",
	Long: `Downloads a file through the GitHub contents API and writes it to --out.

GITHUB_TOKEN, when set, authenticates requests for higher rate limits.`,
	RunE: runFetch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetPath, "dataset", "", "dataset CSV path (overrides DATASET_PATH)")

	ingestCmd.Flags().BoolVar(&force, "force", false, "clear the collection and re-ingest")
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "print status as JSON")

	fetchCmd.Flags().StringVar(&fetchOwner, "owner", "", "repository owner")
	fetchCmd.Flags().StringVar(&fetchRepo, "repo", "", "repository name")
	fetchCmd.Flags().StringVar(&fetchPath, "path", "imdb_top_1000.csv", "file path inside the repository")
	fetchCmd.Flags().StringVar(&fetchRef, "ref", "", "branch, tag or commit (default branch when empty)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "destination file (default: the dataset path)")
	_ = fetchCmd.MarkFlagRequired("owner")
	_ = fetchCmd.MarkFlagRequired("repo")

	rootCmd.AddCommand(ingestCmd, statusCmd, fetchCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration with flag overrides applied.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg := config.Load()
	if datasetPath != "" {
		cfg.DatasetPath = datasetPath
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	start := time.Now()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Connecting to %s vector store...\n", cfg.VectorStore)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("Startup failed: %w", err)
	}
	defer a.Close()

	fmt.Printf("Dataset: %s (%d records)\n", a.Table.Path, a.Table.Len())
	fmt.Println()

	if force {
		fmt.Println("Clearing existing collection and re-ingesting...")
		result, err := a.Indexer.Reindex(ctx, a.Table)
		if err != nil {
			return fmt.Errorf("Ingestion failed: %w", err)
		}
		printResult(result.Inserted, result.Batches, result.FinalCount, false)
	} else {
		result, err := a.EnsureIndexed(ctx)
		if err != nil {
			return fmt.Errorf("Ingestion failed: %w", err)
		}
		if result.Stale && !result.Rebuilt {
			fmt.Println("Warning: the dataset changed since it was indexed. Run with --force to rebuild.")
		}
		printResult(result.Inserted, result.Batches, result.FinalCount, result.Skipped)
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func printResult(inserted, batches int, final uint64, skipped bool) {
	if skipped {
		fmt.Println("Using existing embeddings. No re-ingestion needed.")
	} else {
		fmt.Println("Ingestion complete!")
		fmt.Printf("  Inserted: %d documents in %d batches\n", inserted, batches)
	}
	fmt.Printf("  Final document count: %d\n", final)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("Startup failed: %w", err)
	}
	defer a.Close()

	status, err := a.Status(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Store:      %s (collection %s)\n", status.Backend, status.Collection)
	fmt.Fprintf(out, "Dataset:    %d records, sha256 %s\n", status.DatasetRecords, status.DatasetChecksum)
	fmt.Fprintf(out, "Indexed:    %d documents, sha256 %s\n", status.IndexedDocuments, status.IndexedChecksum)
	switch {
	case status.IndexedDocuments == 0:
		fmt.Fprintln(out, "State:      empty, run `imdb-ingest ingest`")
	case status.Stale:
		fmt.Fprintln(out, "State:      stale, run `imdb-ingest ingest --force`")
	default:
		fmt.Fprintln(out, "State:      up to date")
	}
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	out := fetchOut
	if out == "" {
		out = datasetPath
	}
	if out == "" {
		out = config.Load().DatasetPath
	}

	client, err := ghclient.NewClient(os.Getenv("GITHUB_TOKEN"))
	if err != nil {
		return fmt.Errorf("Failed to create GitHub client: %w", err)
	}

	src := ghclient.Source{Owner: fetchOwner, Repo: fetchRepo, Path: fetchPath, Ref: fetchRef}
	fmt.Printf("Downloading %s...\n", src)

	file, err := ghclient.NewFetcher(client).Fetch(ctx, src, out)
	if err != nil {
		return err
	}

	// The download must parse as a dataset.
	table, err := dataset.Load(file.Path)
	if err != nil {
		return fmt.Errorf("downloaded file is not a usable dataset: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes, %d records)\n", file.Path, file.Size, table.Len())
	fmt.Printf("  sha256: %s\n", file.Checksum)
	return nil
}
