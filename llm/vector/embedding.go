package vector

import (
	"context"
	"fmt"

	"pdfqa/llm"

	"github.com/cloudwego/eino/components/embedding"
)

// DefaultEmbeddingBatchSize is the number of texts sent per embedding request
const DefaultEmbeddingBatchSize = 100

// EmbeddingService wraps an embedding model for vector generation.
// Ingestion and retrieval must share one service so queries and chunks live in the same space.
type EmbeddingService struct {
	embedder  embedding.Embedder
	batchSize int
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(embedder embedding.Embedder, batchSize int) *EmbeddingService {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &EmbeddingService{
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// Embed generates an embedding vector for a single text
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, llm.Wrap(llm.ErrModel, "embed", fmt.Errorf("text cannot be empty"))
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, llm.Wrap(llm.ErrModel, "embed", fmt.Errorf("failed to generate embedding: %w", err))
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, llm.Wrap(llm.ErrModel, "embed", fmt.Errorf("empty embedding returned"))
	}

	return toFloat32(vectors[0]), nil
}

// EmbedBatch generates embedding vectors for multiple texts, in input order.
// Texts are sent in requests of at most batchSize entries.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))

		vectors, err := s.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, llm.Wrap(llm.ErrModel, "embed batch", fmt.Errorf("failed to generate embeddings: %w", err))
		}
		if len(vectors) != end-start {
			return nil, llm.Wrap(llm.ErrModel, "embed batch",
				fmt.Errorf("expected %d embeddings, got %d", end-start, len(vectors)))
		}

		for _, vec := range vectors {
			if len(vec) == 0 {
				return nil, llm.Wrap(llm.ErrModel, "embed batch", fmt.Errorf("empty embedding returned"))
			}
			result = append(result, toFloat32(vec))
		}
	}

	return result, nil
}

// BatchSize returns the maximum number of texts per embedding request
func (s *EmbeddingService) BatchSize() int {
	return s.batchSize
}

// toFloat32 converts float64 to float32
func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
