package rag

import (
	"context"
	"errors"

	"pdfqa/llm"
	"pdfqa/llm/vector"

	"go.uber.org/zap"
)

// DefaultTopK is how many chunks are retrieved per question
const DefaultTopK = 10

// Retriever finds the chunks most similar to a question.
// It must share the EmbeddingService configuration used at ingestion.
type Retriever struct {
	embeddings *vector.EmbeddingService
	store      vector.VectorStore
	topK       int
	logger     *zap.Logger
}

// NewRetriever creates a retriever returning at most topK results
func NewRetriever(embeddings *vector.EmbeddingService, store vector.VectorStore, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embeddings: embeddings,
		store:      store,
		topK:       topK,
		logger:     logger,
	}
}

// Retrieve returns at most topK chunks, best first. Scores are never filtered.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]llm.SearchResult, error) {
	queryVector, err := r.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.store.SimilaritySearch(ctx, queryVector, r.topK)
	if err != nil {
		if errors.Is(err, llm.ErrStore) {
			return nil, err
		}
		return nil, llm.Wrap(llm.ErrStore, "retrieve", err)
	}

	if len(results) > r.topK {
		results = results[:r.topK]
	}

	r.logger.Debug("retrieved chunks", zap.Int("count", len(results)), zap.Float32s("scores", scores(results)))
	return results, nil
}

func scores(results []llm.SearchResult) []float32 {
	out := make([]float32, len(results))
	for i, r := range results {
		out[i] = r.Score
	}
	return out
}
