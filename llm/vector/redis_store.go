package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"pdfqa/llm"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// HNSW index parameters
	defaultEFConstruction = 200
	defaultM              = 16

	// Field names in Redis hash
	fieldContent  = "content"
	fieldVector   = "vector"
	fieldDocID    = "document_id"
	fieldMetadata = "metadata"
	fieldScore    = "score"
)

// RedisStore implements VectorStore using Redis with RediSearch vector search.
// Each collection is an index over hashes whose keys start with "<collection>:".
type RedisStore struct {
	client    *redis.Client
	indexName string
	keyPrefix string
	logger    *zap.Logger

	mu           sync.Mutex
	indexCreated bool
}

// NewRedisStore creates a new Redis-based vector store from a redis:// or rediss:// URL
func NewRedisStore(rawURL, collection string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "open redis", fmt.Errorf("invalid redis URL: %w", err))
	}
	// FT.* replies are parsed as RESP2 arrays
	opts.Protocol = 2

	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisStore{
		client:    redis.NewClient(opts),
		indexName: collection,
		keyPrefix: collection + ":",
		logger:    logger,
	}, nil
}

// ensureIndex creates the HNSW vector index if it doesn't exist.
// The vector dimension is taken from the first batch written.
func (s *RedisStore) ensureIndex(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexCreated {
		return nil
	}

	_, err := s.client.Do(ctx, "FT.INFO", s.indexName).Result()
	if err == nil {
		s.indexCreated = true
		return nil
	}
	if !isUnknownIndex(err) {
		return fmt.Errorf("failed to inspect index: %w", err)
	}

	// FT.CREATE <collection>
	//   ON HASH PREFIX 1 "<collection>:"
	//   SCHEMA vector VECTOR HNSW 10 TYPE FLOAT32 DIM <dim> DISTANCE_METRIC COSINE EF_CONSTRUCTION 200 M 16
	//          content TEXT
	//          document_id TAG
	_, err = s.client.Do(ctx, "FT.CREATE", s.indexName,
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFConstruction),
		"M", strconv.Itoa(defaultM),
		fieldContent, "TEXT",
		fieldDocID, "TAG",
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	s.logger.Info("created vector index", zap.String("index", s.indexName), zap.Int("dim", dim))
	s.indexCreated = true
	return nil
}

// Upsert writes all records in one pipeline; HSET on an existing key replaces its fields
func (s *RedisStore) Upsert(ctx context.Context, records []llm.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := s.ensureIndex(ctx, len(records[0].Vector)); err != nil {
		return llm.Wrap(llm.ErrStore, "redis upsert", err)
	}

	pipe := s.client.Pipeline()
	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata.Map())
		if err != nil {
			return llm.Wrap(llm.ErrStore, "redis upsert", fmt.Errorf("failed to encode metadata: %w", err))
		}

		pipe.HSet(ctx, s.keyPrefix+rec.ID,
			fieldContent, rec.Content,
			fieldVector, encodeVector(rec.Vector),
			fieldDocID, rec.ID,
			fieldMetadata, string(metadataJSON),
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return llm.Wrap(llm.ErrStore, "redis upsert", fmt.Errorf("failed to insert records: %w", err))
	}

	s.logger.Debug("upserted records", zap.Int("count", len(records)))
	return nil
}

// encodeVector encodes a float32 vector as little-endian bytes, the layout RediSearch expects for FLOAT32
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// SimilaritySearch performs a KNN query. A missing index means nothing was ingested yet.
func (s *RedisStore) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]llm.SearchResult, error) {
	if k <= 0 {
		return []llm.SearchResult{}, nil
	}

	// FT.SEARCH <collection> "*=>[KNN k @vector $query_vector AS score]"
	//   PARAMS 2 query_vector "<bytes>"
	//   RETURN 3 content metadata score
	//   SORTBY score
	//   LIMIT 0 k
	//   DIALECT 2
	queryStr := fmt.Sprintf("*=>[KNN %d @%s $query_vector AS %s]", k, fieldVector, fieldScore)

	result, err := s.client.Do(ctx, "FT.SEARCH", s.indexName, queryStr,
		"PARAMS", "2", "query_vector", encodeVector(vector),
		"RETURN", "3", fieldContent, fieldMetadata, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return []llm.SearchResult{}, nil
		}
		return nil, llm.Wrap(llm.ErrStore, "redis search", fmt.Errorf("vector search failed: %w", err))
	}

	results, err := parseSearchResults(result)
	if err != nil {
		return nil, llm.Wrap(llm.ErrStore, "redis search", fmt.Errorf("failed to parse search results: %w", err))
	}

	sortByScore(results)
	return results, nil
}

// parseSearchResults parses an FT.SEARCH reply: a count followed by (key, fields) pairs
func parseSearchResults(result any) ([]llm.SearchResult, error) {
	values, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result format %T", result)
	}

	results := []llm.SearchResult{}
	for i := 1; i+1 < len(values); i += 2 {
		fields, ok := values[i+1].([]any)
		if !ok {
			continue
		}
		results = append(results, parseDocumentFields(fields))
	}

	return results, nil
}

// parseDocumentFields parses a flat field/value list into a scored document.
// Cosine distance is converted to similarity.
func parseDocumentFields(fields []any) llm.SearchResult {
	var res llm.SearchResult

	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		value, ok := fields[i+1].(string)
		if !ok {
			continue
		}

		switch name {
		case fieldContent:
			res.Document.Content = value
		case fieldMetadata:
			var raw map[string]any
			if err := json.Unmarshal([]byte(value), &raw); err == nil {
				res.Document.Metadata = llm.MetadataFromMap(raw)
			}
		case fieldScore:
			if distance, err := strconv.ParseFloat(value, 32); err == nil {
				res.Score = float32(1 - distance)
			}
		}
	}

	return res
}

// Count returns the number of records in the collection's index
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.indexName).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return 0, nil
		}
		return 0, llm.Wrap(llm.ErrStore, "redis count", fmt.Errorf("failed to get index info: %w", err))
	}

	values, ok := info.([]any)
	if !ok {
		return 0, llm.Wrap(llm.ErrStore, "redis count", fmt.Errorf("unexpected info format %T", info))
	}

	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			return parseCount(values[i+1])
		}
	}

	return 0, nil
}

// parseCount accepts num_docs as either an integer or a decimal string, depending on server version
func parseCount(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, llm.Wrap(llm.ErrStore, "redis count", fmt.Errorf("invalid num_docs %q: %w", n, err))
		}
		return int64(f), nil
	default:
		return 0, llm.Wrap(llm.ErrStore, "redis count", fmt.Errorf("unexpected num_docs type %T", v))
	}
}

// isUnknownIndex reports whether err is RediSearch's missing-index reply
func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index name") || strings.Contains(msg, "no such index")
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
