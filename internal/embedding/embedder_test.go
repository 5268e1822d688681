package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingServer answers /embeddings with [len(text), batchIndex] vectors,
// returning items in reverse order to check index handling.
func fakeEmbeddingServer(t *testing.T, batches *[][]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-embed", req.Model)
		*batches = append(*batches, req.Input)

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(req.Input[i])), float64(len(*batches))},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestGenerateEmbeddings_BatchesInOrder(t *testing.T) {
	var batches [][]string
	server := fakeEmbeddingServer(t, &batches)
	defer server.Close()

	client, err := NewClient(server.URL, "")
	require.NoError(t, err)
	embedder := NewEmbedder(client, "test-embed", 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	embeddings, err := embedder.GenerateEmbeddings(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "bb"}, batches[0])
	assert.Equal(t, []string{"eeeee"}, batches[2])

	require.Len(t, embeddings, 5)
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), embeddings[i][0], "embedding %d out of order", i)
	}
	assert.Equal(t, float32(2), embeddings[2][1], "third text belongs to the second batch")
}

func TestGenerateEmbeddings_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "key")
	require.NoError(t, err)

	_, err = NewEmbedder(client, "missing", 0).GenerateEmbeddings(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestNewEmbedder_Defaults(t *testing.T) {
	e := NewEmbedder(nil, "", 0)
	assert.Equal(t, DefaultModel, e.Model())
	assert.Equal(t, DefaultBatchSize, e.batchSize)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("", "key")
	assert.Error(t, err)
}
