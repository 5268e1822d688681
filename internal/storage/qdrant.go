package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStorage wraps the Qdrant client with connection management and health checks.
type QdrantStorage struct {
	client     *qdrant.Client
	host       string
	port       int
	collection string
	dimension  int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(host string, port int, collection string, dimension int) (*QdrantStorage, error) {
	// Create Qdrant client using gRPC
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:     client,
		host:       host,
		port:       port,
		collection: collection,
		dimension:  dimension,
	}

	if err := healthCheckWithRetry(context.Background(), storage.Health); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return storage, nil
}

// Health performs a single health check against Qdrant.
// Returns nil if Qdrant is healthy, error otherwise.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection creates the collection (cosine distance, configured
// dimension) and its payload indexes if it does not exist yet.
// Idempotent - safe to call multiple times.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

// createPayloadIndexes indexes the fields used for filtering and scrolling.
func (s *QdrantStorage) createPayloadIndexes(ctx context.Context) error {
	fields := map[string]qdrant.FieldType{
		"doc_id":          qdrant.FieldType_FieldTypeKeyword,
		"source_checksum": qdrant.FieldType_FieldTypeKeyword,
		"year":            qdrant.FieldType_FieldTypeKeyword,
		"rating":          qdrant.FieldType_FieldTypeFloat,
	}

	for field, fieldType := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      fieldType.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// ClearCollection drops and recreates the collection.
func (s *QdrantStorage) ClearCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStorage) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// UpsertDocuments stores documents in a single request. Point ids are the
// numeric row indexes, so re-submitting a row overwrites rather than duplicates.
func (s *QdrantStorage) UpsertDocuments(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := checkDimensions(docs, s.dimension); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		row, err := strconv.ParseUint(doc.ID, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDocumentID, doc.ID)
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(row),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"doc_id":          doc.ID,
				"content":         doc.Content,
				"title":           doc.Metadata.Title,
				"year":            doc.Metadata.Year,
				"rating":          doc.Metadata.Rating,
				"source_checksum": doc.SourceChecksum,
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	return nil
}

// Search performs vector similarity search.
// Returns up to limit documents ordered by similarity score.
func (s *QdrantStorage) Search(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocument, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	docs := make([]*ScoredDocument, 0, len(results))
	for _, result := range results {
		payload := result.Payload

		docs = append(docs, &ScoredDocument{
			Document: &Document{
				ID:      payload["doc_id"].GetStringValue(),
				Content: payload["content"].GetStringValue(),
				Metadata: DocumentMetadata{
					Title:  payload["title"].GetStringValue(),
					Year:   payload["year"].GetStringValue(),
					Rating: payload["rating"].GetDoubleValue(),
				},
				SourceChecksum: payload["source_checksum"].GetStringValue(),
			},
			Score: float64(result.Score),
		})
	}

	return docs, nil
}

// SourceChecksum returns the dataset checksum recorded with the indexed
// points, or "" when the collection is empty.
func (s *QdrantStorage) SourceChecksum(ctx context.Context) (string, error) {
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(1)),
		WithPayload:    qdrant.NewWithPayloadInclude("source_checksum"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to scroll for source checksum: %w", err)
	}

	if len(results) == 0 {
		return "", nil
	}

	return results[0].Payload["source_checksum"].GetStringValue(), nil
}

// CollectionInfo contains collection statistics.
type CollectionInfo struct {
	PointsCount uint64
	Status      string
}

// GetCollectionInfo retrieves collection statistics.
func (s *QdrantStorage) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	return &CollectionInfo{
		PointsCount: collection.GetPointsCount(),
		Status:      collection.GetStatus().String(),
	}, nil
}
