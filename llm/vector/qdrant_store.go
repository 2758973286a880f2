package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"pdfqa/llm"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultQdrantPort = 6334

	// Payload keys holding the chunk text and its identity
	payloadContent = "content"
	payloadID      = "id"
)

// pointNamespace derives stable Qdrant point UUIDs from chunk identities
var pointNamespace = uuid.MustParse("6f1d9e53-3a0c-4c43-9b1e-0c1f3b7c9a21")

// QdrantStore implements VectorStore on a Qdrant collection over gRPC.
// The client is created on first use.
type QdrantStore struct {
	host       string
	port       int
	useTLS     bool
	apiKey     string
	collection string
	logger     *zap.Logger

	mu      sync.Mutex
	client  *qdrant.Client
	created bool
}

// NewQdrantStore parses qdrant://[api-key@]host[:port][?tls=true]
func NewQdrantStore(u *url.URL, collection string, logger *zap.Logger) (*QdrantStore, error) {
	if u.Hostname() == "" {
		return nil, llm.Wrap(llm.ErrConfiguration, "open qdrant", fmt.Errorf("qdrant URL needs a host"))
	}

	port := defaultQdrantPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, llm.Wrap(llm.ErrConfiguration, "open qdrant", fmt.Errorf("invalid port %q: %w", p, err))
		}
		port = n
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &QdrantStore{
		host:       u.Hostname(),
		port:       port,
		useTLS:     u.Query().Get("tls") == "true",
		apiKey:     u.User.Username(),
		collection: collection,
		logger:     logger,
	}, nil
}

// getClient returns the shared client, dialing it on first call
func (s *QdrantStore) getClient() (*qdrant.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   s.host,
		Port:   s.port,
		APIKey: s.apiKey,
		UseTLS: s.useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	s.client = client
	return client, nil
}

// ensureCollection creates the collection with cosine distance if missing
func (s *QdrantStore) ensureCollection(ctx context.Context, client *qdrant.Client, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.created {
		return nil
	}

	exists, err := client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", s.collection, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", s.collection, err)
		}
		s.logger.Info("created qdrant collection", zap.Int("dim", dim))
	}

	s.created = true
	return nil
}

// Upsert writes all records in one request
func (s *QdrantStore) Upsert(ctx context.Context, records []llm.Record) error {
	if len(records) == 0 {
		return nil
	}

	client, err := s.getClient()
	if err != nil {
		return llm.Wrap(llm.ErrStore, "qdrant upsert", err)
	}
	if err := s.ensureCollection(ctx, client, len(records[0].Vector)); err != nil {
		return llm.Wrap(llm.ErrStore, "qdrant upsert", err)
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(rec.ID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: toPayload(rec),
		}
	}

	_, err = client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return llm.Wrap(llm.ErrStore, "qdrant upsert", fmt.Errorf("upserting points to collection %s: %w", s.collection, err))
	}

	s.logger.Debug("upserted records", zap.Int("count", len(records)))
	return nil
}

// SimilaritySearch queries the collection; a missing collection yields no results
func (s *QdrantStore) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]llm.SearchResult, error) {
	results := []llm.SearchResult{}
	if k <= 0 {
		return results, nil
	}

	client, err := s.getClient()
	if err != nil {
		return nil, llm.Wrap(llm.ErrStore, "qdrant search", err)
	}

	points, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if isNotFound(err) {
			return results, nil
		}
		return nil, llm.Wrap(llm.ErrStore, "qdrant search", fmt.Errorf("searching collection %s: %w", s.collection, err))
	}

	for _, point := range points {
		results = append(results, fromPayload(point.Payload, point.Score))
	}
	sortByScore(results)
	return results, nil
}

// Count returns the exact number of points in the collection
func (s *QdrantStore) Count(ctx context.Context) (int64, error) {
	client, err := s.getClient()
	if err != nil {
		return 0, llm.Wrap(llm.ErrStore, "qdrant count", err)
	}

	n, err := client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, llm.Wrap(llm.ErrStore, "qdrant count", err)
	}
	return int64(n), nil
}

// Close closes the gRPC connection if one was opened
func (s *QdrantStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// pointID maps a chunk identity to a deterministic UUID, since Qdrant only accepts UUIDs or integers.
// The chunk identity itself is kept in the payload.
func pointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

// toPayload flattens a record into Qdrant payload values. Metadata keys that
// collide with the reserved content and id keys are dropped.
func toPayload(rec llm.Record) map[string]*qdrant.Value {
	payload := map[string]*qdrant.Value{
		payloadContent: {Kind: &qdrant.Value_StringValue{StringValue: rec.Content}},
		payloadID:      {Kind: &qdrant.Value_StringValue{StringValue: rec.ID}},
	}

	for k, v := range rec.Metadata.Map() {
		if k == payloadContent || k == payloadID {
			continue
		}
		switch val := v.(type) {
		case string:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
		case int:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
		case float64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
		case bool:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
		default:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprint(val)}}
		}
	}
	return payload
}

// fromPayload rebuilds a scored document from a Qdrant payload
func fromPayload(payload map[string]*qdrant.Value, score float32) llm.SearchResult {
	res := llm.SearchResult{Score: score}
	meta := make(map[string]any, len(payload))

	for k, v := range payload {
		if k == payloadID {
			continue
		}
		switch val := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			if k == payloadContent {
				res.Document.Content = val.StringValue
				continue
			}
			meta[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			meta[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			meta[k] = val.DoubleValue
		case *qdrant.Value_BoolValue:
			meta[k] = val.BoolValue
		}
	}

	res.Document.Metadata = llm.MetadataFromMap(meta)
	return res
}

func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == grpccodes.NotFound
}
