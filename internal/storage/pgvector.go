package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PgVectorStorage keeps documents in a Postgres table with a pgvector column.
// The table is named after the collection.
type PgVectorStorage struct {
	db        *sql.DB
	table     string // quoted identifier
	index     string // quoted identifier
	dimension int
}

// NewPgVectorStorage opens the database and waits for it to become healthy.
func NewPgVectorStorage(databaseURL, collection string, dimension int) (*PgVectorStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &PgVectorStorage{
		db:        db,
		table:     pq.QuoteIdentifier(collection),
		index:     pq.QuoteIdentifier(collection + "_embedding_idx"),
		dimension: dimension,
	}

	if err := healthCheckWithRetry(context.Background(), storage.Health); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return storage, nil
}

// Health pings the database.
func (s *PgVectorStorage) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// EnsureCollection creates the extension, table and HNSW index if missing.
func (s *PgVectorStorage) EnsureCollection(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id              TEXT PRIMARY KEY,
			content         TEXT NOT NULL,
			title           TEXT NOT NULL DEFAULT '',
			year            TEXT NOT NULL DEFAULT '',
			rating          DOUBLE PRECISION NOT NULL DEFAULT 0,
			source_checksum TEXT NOT NULL DEFAULT '',
			embedding       vector(%d) NOT NULL
		)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, s.index, s.table),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure collection: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (s *PgVectorStorage) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// UpsertDocuments inserts documents in one transaction. Existing ids are left
// untouched, so a repeated batch never duplicates rows.
func (s *PgVectorStorage) UpsertDocuments(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := checkDimensions(docs, s.dimension); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, content, title, year, rating, source_checksum, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`, s.table))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		_, err := stmt.ExecContext(ctx,
			doc.ID, doc.Content, doc.Metadata.Title, doc.Metadata.Year, doc.Metadata.Rating,
			doc.SourceChecksum, pgvector.NewVector(doc.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Search returns the nearest documents by cosine distance.
func (s *PgVectorStorage) Search(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocument, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, content, title, year, rating, source_checksum, 1 - (embedding <=> $1) AS score
		 FROM %s
		 ORDER BY embedding <=> $1
		 LIMIT $2`, s.table),
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var docs []*ScoredDocument
	for rows.Next() {
		doc := &Document{}
		var score float64
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Metadata.Title, &doc.Metadata.Year,
			&doc.Metadata.Rating, &doc.SourceChecksum, &score); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, &ScoredDocument{Document: doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return docs, nil
}

// SourceChecksum returns the dataset checksum recorded with any stored row.
func (s *PgVectorStorage) SourceChecksum(ctx context.Context) (string, error) {
	var sum string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT source_checksum FROM %s LIMIT 1`, s.table)).Scan(&sum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read source checksum: %w", err)
	}
	return sum, nil
}

// ClearCollection removes every stored document.
func (s *PgVectorStorage) ClearCollection(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PgVectorStorage) Close() error {
	return s.db.Close()
}
