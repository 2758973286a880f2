package vector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pdfqa/llm"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// ChromemStore implements VectorStore using the embedded chromem-go database.
// With an empty path the database lives in memory only.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewChromemStore opens (or creates) a persistent database at path, or an in-memory one when path is empty
func NewChromemStore(path, collection string, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(expandPath(path), false)
		if err != nil {
			return nil, llm.Wrap(llm.ErrStore, "open chromem", fmt.Errorf("creating chromem DB: %w", err))
		}
	}

	// Vectors are always supplied by the caller. Passing an embedding function keeps
	// chromem from defaulting to its OpenAI client.
	coll, err := db.GetOrCreateCollection(collection, nil, precomputedOnly)
	if err != nil {
		return nil, llm.Wrap(llm.ErrStore, "open chromem", fmt.Errorf("creating collection %s: %w", collection, err))
	}

	return &ChromemStore{
		db:         db,
		collection: coll,
		logger:     logger,
	}, nil
}

func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("chromem store expects precomputed embeddings")
}

// Upsert adds records; an existing ID is replaced
func (s *ChromemStore) Upsert(ctx context.Context, records []llm.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Content,
			Metadata:  toStringMap(rec.Metadata.Map()),
			Embedding: rec.Vector,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return llm.Wrap(llm.ErrStore, "chromem upsert", fmt.Errorf("failed to add documents: %w", err))
	}

	s.logger.Debug("upserted records", zap.Int("count", len(records)))
	return nil
}

// SimilaritySearch runs an exact cosine search, capping k at the collection size
func (s *ChromemStore) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]llm.SearchResult, error) {
	results := []llm.SearchResult{}

	k = min(k, s.collection.Count())
	if k <= 0 {
		return results, nil
	}

	hits, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, llm.Wrap(llm.ErrStore, "chromem search", fmt.Errorf("query failed: %w", err))
	}

	for _, hit := range hits {
		raw := make(map[string]any, len(hit.Metadata))
		for key, val := range hit.Metadata {
			raw[key] = val
		}
		results = append(results, llm.SearchResult{
			Document: llm.Document{
				Content:  hit.Content,
				Metadata: llm.MetadataFromMap(raw),
			},
			Score: hit.Similarity,
		})
	}

	sortByScore(results)
	return results, nil
}

// Count returns the number of records in the collection
func (s *ChromemStore) Count(ctx context.Context) (int64, error) {
	return int64(s.collection.Count()), nil
}

// Close is a no-op; chromem persists on every write
func (s *ChromemStore) Close() error {
	return nil
}

// toStringMap stringifies metadata values, since chromem metadata is string-typed
func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
