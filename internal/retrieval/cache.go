package retrieval

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQueryCacheSize bounds the number of cached query embeddings.
const DefaultQueryCacheSize = 256

// CachedEmbedder remembers embeddings of recently seen texts so repeated
// questions skip the embedding call. Only misses reach the wrapped embedder.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps next with an LRU of the given size.
// size <= 0 uses DefaultQueryCacheSize.
func NewCachedEmbedder(next Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: c}, nil
}

func (c *CachedEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missing []string
	var missingAt []int
	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	embeddings, err := c.next.GenerateEmbeddings(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(missing) {
		return nil, fmt.Errorf("got %d vectors for %d texts", len(embeddings), len(missing))
	}

	for j, v := range embeddings {
		c.cache.Add(missing[j], v)
		out[missingAt[j]] = v
	}
	return out, nil
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }
