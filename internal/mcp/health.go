package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Documents uint64 `json:"documents"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is the store dependency of the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
	Count(ctx context.Context) (uint64, error)
}

// NewHealthHandler creates an HTTP handler for the /health endpoint. It
// reports 503 when the vector store is unreachable.
func NewHealthHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		err := store.Health(ctx)
		if err == nil {
			response.Documents, err = store.Count(ctx)
		}
		if err != nil {
			response.Status = "unhealthy"
			response.Store = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Store = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
