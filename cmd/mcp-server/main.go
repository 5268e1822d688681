// Package main serves the movie assistant's MCP tools over stdio, for local
// MCP clients that launch the server as a subprocess.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/imdb-assistant/internal/app"
	"github.com/bull/imdb-assistant/internal/config"
	"github.com/bull/imdb-assistant/internal/logging"
	mcpserver "github.com/bull/imdb-assistant/internal/mcp"
)

var version = "dev"

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	// stdout carries the protocol; logs go to stderr.
	cfg := config.Load()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if _, err := a.EnsureIndexed(ctx); err != nil {
		logger.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}

	server := mcpserver.NewServer(&mcpserver.Config{
		Searcher:  a.Retriever,
		Assistant: a.Assistant,
		Counter:   a.Store,
		Dashboard: a.Dashboard,
		Version:   version,
	})

	logger.Info("Starting IMDB movie assistant MCP server (stdio mode)")
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
