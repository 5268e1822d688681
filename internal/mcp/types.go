// Package mcp exposes the movie assistant as Model Context Protocol tools.
package mcp

import (
	"github.com/bull/imdb-assistant/internal/analytics"
	"github.com/bull/imdb-assistant/internal/response"
)

// SearchMoviesInput defines the input parameters for the search_movies tool.
type SearchMoviesInput struct {
	// Query is the natural language search text.
	Query string `json:"query" jsonschema:"what to look for, e.g. 'heist movies from the nineties'"`
	// Limit is the maximum number of movies to return.
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of movies to return, 1 to 50, default 10"`
}

// SearchMoviesOutput contains the search results.
type SearchMoviesOutput struct {
	Results []MovieHit `json:"results"`
	// Message provides informational context (e.g., "No matching movies found").
	Message string `json:"message,omitempty"`
}

// MovieHit is one retrieved dataset record.
type MovieHit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Year    string  `json:"year"`
	Rating  float64 `json:"rating"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// AskMoviesInput defines the input parameters for the ask_movies tool.
type AskMoviesInput struct {
	Question string `json:"question" jsonschema:"a question about the movies in the dataset"`
}

// AskMoviesOutput is the assistant's answer.
type AskMoviesOutput struct {
	// Answer is the raw model output, or the fallback sentence.
	Answer   string               `json:"answer"`
	Cards    []response.MovieCard `json:"cards"`
	Fallback bool                 `json:"fallback"`
	Sources  int                  `json:"sources"`
}

// DatasetStatsInput takes no parameters.
type DatasetStatsInput struct{}

// DatasetStatsOutput contains the dashboard figures and index size.
type DatasetStatsOutput struct {
	Dashboard        analytics.Dashboard `json:"dashboard"`
	IndexedDocuments uint64              `json:"indexed_documents"`
}
