// Package main runs the movie assistant web server: chat and dashboard tabs,
// JSON API, health check and the MCP endpoint.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/imdb-assistant/internal/app"
	"github.com/bull/imdb-assistant/internal/config"
	"github.com/bull/imdb-assistant/internal/logging"
	mcpserver "github.com/bull/imdb-assistant/internal/mcp"
	"github.com/bull/imdb-assistant/internal/web"
)

var version = "dev"

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "Invalid configuration", err)
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "Startup failed", err)
	}
	defer a.Close()

	if _, err := a.EnsureIndexed(ctx); err != nil {
		fatal(logger, "Ingestion failed", err)
	}

	mcp := mcpserver.NewServer(&mcpserver.Config{
		Searcher:  a.Retriever,
		Assistant: a.Assistant,
		Counter:   a.Store,
		Dashboard: a.Dashboard,
		Version:   version,
	})

	engine := web.NewEngine(web.Options{
		Assistant:     a.Assistant,
		Sessions:      a.Sessions,
		Dashboard:     a.Dashboard,
		Health:        mcpserver.NewHealthHandler(a.Store),
		MCP:           mcpserver.NewHTTPHandler(mcp, &mcpserver.HTTPHandlerOptions{Stateless: true}),
		Landing:       mcpserver.NewLandingHandler(web.MCPPath),
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		Logger:        logger,
	})

	// No write timeout: a turn blocks until the model answers.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Starting HTTP server", "addr", "http://localhost:"+cfg.Port, "mcp", web.MCPPath, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "HTTP server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
