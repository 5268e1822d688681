package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/imdb-assistant/internal/config"
	"github.com/bull/imdb-assistant/internal/dataset"
	"github.com/bull/imdb-assistant/internal/storage"
)

const testDimension = 4

// fakeEmbedder returns a deterministic vector per text and records each call.
type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1, float32(i + 1), 0.5}
	}
	return out, nil
}

// recordingStore wraps a memory store and records the ids of each upsert.
type recordingStore struct {
	*storage.MemoryStorage
	batches [][]string
	clears  int
}

func (r *recordingStore) UpsertDocuments(ctx context.Context, docs []*storage.Document) error {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	r.batches = append(r.batches, ids)
	return r.MemoryStorage.UpsertDocuments(ctx, docs)
}

func (r *recordingStore) ClearCollection(ctx context.Context) error {
	r.clears++
	return r.MemoryStorage.ClearCollection(ctx)
}

func newStore() *recordingStore {
	return &recordingStore{MemoryStorage: storage.NewMemoryStorage(testDimension)}
}

func testTable(n int, checksum string) *dataset.Table {
	records := make([]dataset.MovieRecord, n)
	for i := range records {
		records[i] = dataset.MovieRecord{
			Row:      i,
			Title:    fmt.Sprintf("Movie %d", i),
			Year:     "2000",
			Rating:   7.5,
			Director: "Someone",
			Overview: "Things happen.",
		}
	}
	return &dataset.Table{Path: "movies.csv", Checksum: checksum, Records: records}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsureIndexed_IngestsEmptyStoreInBatches(t *testing.T) {
	store := newStore()
	embedder := &fakeEmbedder{}
	p := NewPipeline(store, embedder, 2, config.StaleWarn, quietLogger())

	result, err := p.EnsureIndexed(context.Background(), testTable(5, "abc"))
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 5, result.TotalRecords)
	assert.Equal(t, 5, result.Inserted)
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, uint64(0), result.ExistingCount)
	assert.Equal(t, uint64(5), result.FinalCount)

	assert.Equal(t, [][]string{{"0", "1"}, {"2", "3"}, {"4"}}, store.batches)
	assert.Len(t, embedder.calls, 3)
}

func TestEnsureIndexed_RunsOnce(t *testing.T) {
	store := newStore()
	embedder := &fakeEmbedder{}
	p := NewPipeline(store, embedder, 500, config.StaleWarn, quietLogger())
	table := testTable(3, "abc")

	_, err := p.EnsureIndexed(context.Background(), table)
	require.NoError(t, err)

	result, err := p.EnsureIndexed(context.Background(), table)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.False(t, result.Stale)
	assert.Equal(t, uint64(3), result.ExistingCount)
	assert.Equal(t, uint64(3), result.FinalCount)
	assert.Len(t, store.batches, 1, "second run must not write")
	assert.Len(t, embedder.calls, 1, "second run must not embed")

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestEnsureIndexed_StalePolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      string
		wantStale   bool
		wantRebuilt bool
		wantClears  int
	}{
		{name: "ignore", policy: config.StaleIgnore, wantStale: false},
		{name: "warn", policy: config.StaleWarn, wantStale: true},
		{name: "rebuild", policy: config.StaleRebuild, wantStale: true, wantRebuilt: true, wantClears: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore()
			embedder := &fakeEmbedder{}
			p := NewPipeline(store, embedder, 500, tt.policy, quietLogger())

			_, err := p.EnsureIndexed(ctx, testTable(3, "old"))
			require.NoError(t, err)

			result, err := p.EnsureIndexed(ctx, testTable(2, "new"))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStale, result.Stale)
			assert.Equal(t, tt.wantRebuilt, result.Rebuilt)
			assert.Equal(t, tt.wantClears, store.clears)

			checksum, err := store.SourceChecksum(ctx)
			require.NoError(t, err)
			count, err := store.Count(ctx)
			require.NoError(t, err)

			if tt.wantRebuilt {
				assert.Equal(t, "new", checksum)
				assert.Equal(t, uint64(2), count)
			} else {
				assert.Equal(t, "old", checksum)
				assert.Equal(t, uint64(3), count)
			}
		})
	}
}

func TestReindex_ReplacesContents(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	p := NewPipeline(store, &fakeEmbedder{}, 500, config.StaleIgnore, quietLogger())

	_, err := p.EnsureIndexed(ctx, testTable(4, "a"))
	require.NoError(t, err)

	result, err := p.Reindex(ctx, testTable(2, "b"))
	require.NoError(t, err)

	assert.True(t, result.Rebuilt)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, uint64(2), result.FinalCount)
	assert.Equal(t, 1, store.clears)
}

func TestEnsureIndexed_EmbeddingFailure(t *testing.T) {
	store := newStore()
	embedder := &fakeEmbedder{err: errors.New("model not pulled")}
	p := NewPipeline(store, embedder, 500, config.StaleWarn, quietLogger())

	_, err := p.EnsureIndexed(context.Background(), testTable(2, "abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not pulled")

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEnsureIndexed_DimensionMismatch(t *testing.T) {
	store := &recordingStore{MemoryStorage: storage.NewMemoryStorage(8)}
	p := NewPipeline(store, &fakeEmbedder{}, 500, config.StaleWarn, quietLogger())

	_, err := p.EnsureIndexed(context.Background(), testTable(1, "abc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline(newStore(), &fakeEmbedder{}, 0, "", nil)
	assert.Equal(t, DefaultBatchSize, p.batchSize)
	assert.Equal(t, config.StaleWarn, p.stalePolicy)
	assert.NotNil(t, p.logger)
}
