package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/imdb-assistant/internal/analytics"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Searcher  Searcher
	Assistant Assistant
	Counter   Counter
	Dashboard analytics.Dashboard
	Version   string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	impl := &mcp.Implementation{
		Name:    "imdb-movie-assistant",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_movies",
		Description: "Semantic search over the IMDB top 1000 dataset. Returns the matching records with title, year, rating, similarity score and full text.",
	}, makeSearchHandler(cfg.Searcher))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_movies",
		Description: "Answer a question using only the IMDB top 1000 dataset. Returns the model's answer and the movie cards parsed from it.",
	}, makeAskHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dataset_stats",
		Description: "Aggregate figures for the dataset: movie count, average and highest rating, top genres, movies per year, rating distribution and indexed document count.",
	}, makeStatsHandler(cfg.Dashboard, cfg.Counter))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
