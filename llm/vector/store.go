package vector

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"pdfqa/llm"

	"go.uber.org/zap"
)

// VectorStore defines the interface for vector storage operations.
// Records are keyed by ID; writing an existing ID replaces the record.
type VectorStore interface {
	// Upsert inserts or replaces records in a single operation
	Upsert(ctx context.Context, records []llm.Record) error

	// SimilaritySearch returns at most k records closest to vector, best first.
	// Fewer than k results is not an error.
	SimilaritySearch(ctx context.Context, vector []float32, k int) ([]llm.SearchResult, error)

	// Count returns the total number of records in the collection
	Count(ctx context.Context) (int64, error)

	// Close closes any connections or resources
	Close() error
}

// Open selects a backend by URL scheme. No network I/O happens here;
// backends connect or create their schema on first use.
//
//	redis://, rediss://                               RediSearch
//	postgres://, postgresql://, postgresql+psycopg:// pgvector
//	qdrant://host:port                                Qdrant (gRPC)
//	chromem:///abs/dir, chromem://rel/dir             persistent embedded store
//	memory://                                         in-process store
func Open(ctx context.Context, rawURL, collection string, logger *zap.Logger) (VectorStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collection == "" {
		return nil, llm.Wrap(llm.ErrConfiguration, "open store", fmt.Errorf("collection name is required"))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "open store", fmt.Errorf("invalid store URL: %w", err))
	}

	logger = logger.With(zap.String("backend", u.Scheme), zap.String("collection", collection))

	var store VectorStore
	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		store, err = NewRedisStore(rawURL, collection, logger)
	case "postgres", "postgresql", "postgresql+psycopg":
		store, err = NewPGVectorStore(ctx, normalizePostgresURL(u), collection, logger)
	case "qdrant":
		store, err = NewQdrantStore(u, collection, logger)
	case "chromem":
		store, err = NewChromemStore(u.Host+u.Path, collection, logger)
	case "memory":
		store, err = NewChromemStore("", collection, logger)
	default:
		return nil, llm.Wrap(llm.ErrConfiguration, "open store", fmt.Errorf("unsupported store scheme %q", u.Scheme))
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("vector store opened")
	return store, nil
}

// normalizePostgresURL rewrites driver-qualified schemes to one pgx understands
func normalizePostgresURL(u *url.URL) string {
	c := *u
	c.Scheme = "postgres"
	return c.String()
}

// sortByScore orders results best first, keeping backend order for ties
func sortByScore(results []llm.SearchResult) {
	slices.SortStableFunc(results, func(a, b llm.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
