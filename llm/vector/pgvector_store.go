package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pdfqa/llm"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// Table layout shared with langchain_postgres, so collections written by either side stay readable
const (
	pgCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgCreateCollectionTable = `CREATE TABLE IF NOT EXISTS langchain_pg_collection (
	uuid UUID PRIMARY KEY,
	name VARCHAR NOT NULL UNIQUE,
	cmetadata JSON
)`

	pgCreateEmbeddingTable = `CREATE TABLE IF NOT EXISTS langchain_pg_embedding (
	id VARCHAR PRIMARY KEY,
	collection_id UUID REFERENCES langchain_pg_collection (uuid) ON DELETE CASCADE,
	embedding VECTOR,
	document VARCHAR,
	cmetadata JSONB
)`

	pgInsertCollection = `INSERT INTO langchain_pg_collection (uuid, name, cmetadata)
VALUES ($1, $2, '{}') ON CONFLICT (name) DO NOTHING`

	pgSelectCollection = `SELECT uuid FROM langchain_pg_collection WHERE name = $1`

	pgUpsertEmbedding = `INSERT INTO langchain_pg_embedding (id, collection_id, embedding, document, cmetadata)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	collection_id = EXCLUDED.collection_id,
	embedding = EXCLUDED.embedding,
	document = EXCLUDED.document,
	cmetadata = EXCLUDED.cmetadata`

	pgSearch = `SELECT e.document, e.cmetadata, 1 - (e.embedding <=> $1) AS score
FROM langchain_pg_embedding e
JOIN langchain_pg_collection c ON e.collection_id = c.uuid
WHERE c.name = $2
ORDER BY e.embedding <=> $1
LIMIT $3`

	pgCount = `SELECT count(*)
FROM langchain_pg_embedding e
JOIN langchain_pg_collection c ON e.collection_id = c.uuid
WHERE c.name = $1`

	// undefined_table
	pgCodeUndefinedTable = "42P01"
)

// PGVectorStore implements VectorStore on PostgreSQL with the pgvector extension
type PGVectorStore struct {
	pool       *pgxpool.Pool
	collection string
	logger     *zap.Logger

	mu           sync.Mutex
	collectionID uuid.UUID
}

// NewPGVectorStore creates a pooled store. Connections are established on first query.
func NewPGVectorStore(ctx context.Context, connString, collection string, logger *zap.Logger) (*PGVectorStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "open pgvector", fmt.Errorf("invalid postgres URL: %w", err))
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &PGVectorStore{
		pool:       pool,
		collection: collection,
		logger:     logger,
	}, nil
}

// ensureCollection creates the extension, tables and collection row once per store
func (s *PGVectorStore) ensureCollection(ctx context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID != uuid.Nil {
		return s.collectionID, nil
	}

	for _, stmt := range []string{pgCreateExtension, pgCreateCollectionTable, pgCreateEmbeddingTable} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return uuid.Nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := s.pool.Exec(ctx, pgInsertCollection, uuid.New(), s.collection); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create collection: %w", err)
	}

	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, pgSelectCollection, s.collection).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to load collection: %w", err)
	}

	s.logger.Debug("collection ready", zap.String("collection_id", id.String()))
	s.collectionID = id
	return id, nil
}

// Upsert writes every record in one transaction
func (s *PGVectorStore) Upsert(ctx context.Context, records []llm.Record) error {
	if len(records) == 0 {
		return nil
	}

	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return llm.Wrap(llm.ErrStore, "pgvector upsert", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(pgUpsertEmbedding,
			rec.ID,
			collectionID,
			pgvector.NewVector(rec.Vector),
			rec.Content,
			rec.Metadata.Map(),
		)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return llm.Wrap(llm.ErrStore, "pgvector upsert", fmt.Errorf("failed to insert records: %w", err))
	}

	s.logger.Debug("upserted records", zap.Int("count", len(records)))
	return nil
}

// SimilaritySearch ranks by cosine distance; score is cosine similarity
func (s *PGVectorStore) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]llm.SearchResult, error) {
	results := []llm.SearchResult{}
	if k <= 0 {
		return results, nil
	}

	rows, err := s.pool.Query(ctx, pgSearch, pgvector.NewVector(vector), s.collection, k)
	if err != nil {
		if isUndefinedTable(err) {
			return results, nil
		}
		return nil, llm.Wrap(llm.ErrStore, "pgvector search", fmt.Errorf("vector search failed: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			content string
			meta    map[string]any
			score   float64
		)
		if err := rows.Scan(&content, &meta, &score); err != nil {
			return nil, llm.Wrap(llm.ErrStore, "pgvector search", fmt.Errorf("failed to scan row: %w", err))
		}
		results = append(results, llm.SearchResult{
			Document: llm.Document{
				Content:  content,
				Metadata: llm.MetadataFromMap(meta),
			},
			Score: float32(score),
		})
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return []llm.SearchResult{}, nil
		}
		return nil, llm.Wrap(llm.ErrStore, "pgvector search", err)
	}

	return results, nil
}

// Count returns the number of records in the collection
func (s *PGVectorStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, pgCount, s.collection).Scan(&n); err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, llm.Wrap(llm.ErrStore, "pgvector count", err)
	}
	return n, nil
}

// Close releases the connection pool
func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUndefinedTable
}
