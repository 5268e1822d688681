package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/imdb-assistant/internal/storage"
)

// keywordEmbedder maps texts onto three axes by keyword.
type keywordEmbedder struct {
	calls int
	err   error
}

func (k *keywordEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	k.calls++
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vectorFor(text)
	}
	return out, nil
}

func vectorFor(text string) []float32 {
	switch {
	case strings.Contains(text, "prison"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "mafia"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func seededStore(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage(3)
	docs := []*storage.Document{
		{ID: "0", Content: "Title: The Shawshank Redemption\nOverview: prison friendship", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "1", Content: "Title: The Godfather\nOverview: mafia family", Embedding: []float32{0, 1, 0.1}},
		{ID: "2", Content: "Title: Toy Story\nOverview: toys", Embedding: []float32{0, 0, 1}},
	}
	require.NoError(t, store.UpsertDocuments(context.Background(), docs))
	return store
}

func TestSearch_OrdersBySimilarity(t *testing.T) {
	r := NewRetriever(seededStore(t), &keywordEmbedder{}, 2, nil)

	results, err := r.Search(context.Background(), "movies about prison")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0], "Shawshank")
}

func TestSearch_FewerDocumentsThanK(t *testing.T) {
	r := NewRetriever(seededStore(t), &keywordEmbedder{}, 10, nil)

	results, err := r.Search(context.Background(), "mafia")
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Contains(t, results[0], "Godfather")
}

func TestSearch_EmptyStore(t *testing.T) {
	r := NewRetriever(storage.NewMemoryStorage(3), &keywordEmbedder{}, 10, nil)

	results, err := r.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	embedder := &keywordEmbedder{}
	r := NewRetriever(seededStore(t), embedder, 10, nil)

	_, err := r.Search(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, embedder.calls)
}

func TestSearch_EmbeddingError(t *testing.T) {
	r := NewRetriever(seededStore(t), &keywordEmbedder{err: errors.New("connection refused")}, 10, nil)

	_, err := r.Search(context.Background(), "prison")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}

func TestSearchN_OverridesK(t *testing.T) {
	r := NewRetriever(seededStore(t), &keywordEmbedder{}, 10, nil)

	docs, err := r.SearchN(context.Background(), "prison", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "0", docs[0].ID)
	assert.Greater(t, docs[0].Score, 0.9)
}

func TestNewRetriever_DefaultK(t *testing.T) {
	r := NewRetriever(storage.NewMemoryStorage(3), &keywordEmbedder{}, 0, nil)
	assert.Equal(t, DefaultTopK, r.K())
}
