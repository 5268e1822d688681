package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStorage is a process-local store using brute-force cosine similarity.
// Nothing survives a restart; it backs tests and VECTOR_STORE=memory.
type MemoryStorage struct {
	mu        sync.RWMutex
	dimension int
	ids       map[string]int
	docs      []*Document
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage(dimension int) *MemoryStorage {
	return &MemoryStorage{dimension: dimension, ids: make(map[string]int)}
}

func (s *MemoryStorage) Health(ctx context.Context) error           { return nil }
func (s *MemoryStorage) EnsureCollection(ctx context.Context) error { return nil }
func (s *MemoryStorage) Close() error                               { return nil }

func (s *MemoryStorage) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.docs)), nil
}

// UpsertDocuments adds documents, replacing any with the same id.
func (s *MemoryStorage) UpsertDocuments(ctx context.Context, docs []*Document) error {
	if err := checkDimensions(docs, s.dimension); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		stored := *doc
		stored.Embedding = normalize(doc.Embedding)
		if i, ok := s.ids[doc.ID]; ok {
			s.docs[i] = &stored
			continue
		}
		s.ids[doc.ID] = len(s.docs)
		s.docs = append(s.docs, &stored)
	}
	return nil
}

func (s *MemoryStorage) Search(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocument, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	query := normalize(embedding)

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]*ScoredDocument, len(s.docs))
	for i, doc := range s.docs {
		hit := *doc
		hit.Embedding = nil
		scored[i] = &ScoredDocument{Document: &hit, Score: dot(doc.Embedding, query)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStorage) SourceChecksum(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return "", nil
	}
	return s.docs[0].SourceChecksum, nil
}

func (s *MemoryStorage) ClearCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.ids = make(map[string]int)
	return nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
