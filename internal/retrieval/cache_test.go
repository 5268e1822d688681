package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_HitsSkipUpstream(t *testing.T) {
	upstream := &keywordEmbedder{}
	cached, err := NewCachedEmbedder(upstream, 8)
	require.NoError(t, err)

	first, err := cached.GenerateEmbeddings(context.Background(), []string{"prison"})
	require.NoError(t, err)
	second, err := cached.GenerateEmbeddings(context.Background(), []string{"prison"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedEmbedder_MixedHitsKeepOrder(t *testing.T) {
	upstream := &keywordEmbedder{}
	cached, err := NewCachedEmbedder(upstream, 8)
	require.NoError(t, err)

	_, err = cached.GenerateEmbeddings(context.Background(), []string{"mafia"})
	require.NoError(t, err)

	got, err := cached.GenerateEmbeddings(context.Background(), []string{"prison", "mafia", "other"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, got)
	assert.Equal(t, 2, upstream.calls)
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	upstream := &keywordEmbedder{err: errors.New("down")}
	cached, err := NewCachedEmbedder(upstream, 8)
	require.NoError(t, err)

	_, err = cached.GenerateEmbeddings(context.Background(), []string{"prison"})
	require.Error(t, err)
	assert.Zero(t, cached.Len())
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	cached, err := NewCachedEmbedder(&keywordEmbedder{}, 1)
	require.NoError(t, err)

	_, err = cached.GenerateEmbeddings(context.Background(), []string{"prison", "mafia"})
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())
}
