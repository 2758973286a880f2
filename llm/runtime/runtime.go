// Package runtime wires configuration into the ingestion and answering pipelines.
package runtime

import (
	"context"
	"errors"
	"fmt"

	"pdfqa/config"
	"pdfqa/llm"
	"pdfqa/llm/parser"
	"pdfqa/llm/providers"
	"pdfqa/llm/rag"
	"pdfqa/llm/vector"
	"pdfqa/logging"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"
)

// Runtime owns the vector store and embedding service shared by both pipelines
type Runtime struct {
	cfg        *config.Config
	store      vector.VectorStore
	embeddings *vector.EmbeddingService
	tracer     *tracer
	logger     *zap.Logger

	// overridable in tests
	newChatModel func(ctx context.Context, cfg providers.Config) (model.BaseChatModel, error)
}

// New creates the embedding model and opens the configured vector store
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	embedder, err := providers.NewEmbeddingModel(ctx, cfg.Providers())
	if err != nil {
		return nil, err
	}
	return NewWithEmbedder(ctx, cfg, embedder, logger)
}

// NewWithEmbedder is New with a caller-supplied embedder
func NewWithEmbedder(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if embedder == nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "runtime", errors.New("embedder is nil"))
	}

	tr, err := newTracer(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("opening vector store",
		logging.RedactedURL("url", cfg.VectorStoreURL),
		zap.String("collection", cfg.VectorStoreCollection),
	)
	store, err := vector.Open(ctx, cfg.VectorStoreURL, cfg.VectorStoreCollection, logger)
	if err != nil {
		tr.close(ctx)
		return nil, err
	}

	return &Runtime{
		cfg:          cfg,
		store:        store,
		embeddings:   vector.NewEmbeddingService(embedder, cfg.EmbeddingBatchSize),
		tracer:       tr,
		logger:       logger,
		newChatModel: providers.NewChatModel,
	}, nil
}

// Ingestor builds the ingestion pipeline over the default loader registry
func (r *Runtime) Ingestor() *rag.Ingestor {
	return rag.NewIngestor(
		parser.DefaultRegistry(),
		vector.NewSplitter(r.cfg.ChunkSize, r.cfg.ChunkOverlap),
		r.embeddings,
		r.store,
		r.logger.Named("ingest"),
	)
}

// Answerer builds the question-answering pipeline and returns the refusal sentence it uses
func (r *Runtime) Answerer(ctx context.Context) (*rag.Answerer, string, error) {
	prompt, err := rag.PromptFor(r.cfg.PromptLanguage)
	if err != nil {
		return nil, "", llm.Wrap(llm.ErrConfiguration, "runtime", err)
	}

	cm, err := r.newChatModel(ctx, r.cfg.Providers())
	if err != nil {
		return nil, "", err
	}

	synth, err := rag.NewSynthesizer(ctx, cm, prompt, r.logger.Named("synthesizer"), r.tracer.handlers()...)
	if err != nil {
		return nil, "", err
	}

	retriever := rag.NewRetriever(r.embeddings, r.store, r.cfg.TopK, r.logger.Named("retriever"))
	return rag.NewAnswerer(retriever, synth, r.logger.Named("answer")), synth.Refusal(), nil
}

// Close flushes traces and releases the vector store connection
func (r *Runtime) Close() error {
	r.tracer.close(context.Background())
	if err := r.store.Close(); err != nil {
		return fmt.Errorf("failed to close vector store: %w", err)
	}
	return nil
}
