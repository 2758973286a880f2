package rag

import (
	"context"
	"errors"

	"pdfqa/llm"
	"pdfqa/llm/vector"
	"pdfqa/pubsub"

	"go.uber.org/zap"
)

// Loader turns a source file into documents
type Loader interface {
	Load(ctx context.Context, path string) ([]llm.Document, error)
}

// Ingestion stages reported as progress events
const (
	StageLoaded   = "loaded"
	StageSplit    = "split"
	StageEmbedded = "embedded"
	StageStored   = "stored"
)

// Progress is the payload of ingestion events. Count is pages, chunks,
// vectors or records depending on Stage.
type Progress struct {
	Source string
	Stage  string
	Count  int
	Err    error
}

// Ingestor runs load -> split -> enrich -> embed -> upsert for one source file
type Ingestor struct {
	loader     Loader
	splitter   *vector.Splitter
	embeddings *vector.EmbeddingService
	store      vector.VectorStore
	progress   pubsub.Publisher[Progress]
	logger     *zap.Logger
}

// NewIngestor creates an ingestion pipeline
func NewIngestor(loader Loader, splitter *vector.Splitter, embeddings *vector.EmbeddingService, store vector.VectorStore, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		loader:     loader,
		splitter:   splitter,
		embeddings: embeddings,
		store:      store,
		logger:     logger,
	}
}

// WithProgress makes the ingestor publish stage events to p
func (in *Ingestor) WithProgress(p pubsub.Publisher[Progress]) *Ingestor {
	in.progress = p
	return in
}

func (in *Ingestor) publish(t pubsub.EventType, p Progress) {
	if in.progress != nil {
		in.progress.Publish(t, p)
	}
}

// Ingest loads sourcePath and writes its chunks to the store, returning the number of records written.
// A source with no text writes nothing and touches neither the embedder nor the store.
// Re-ingesting an unchanged source overwrites the same records.
func (in *Ingestor) Ingest(ctx context.Context, sourcePath string) (int, error) {
	in.publish(pubsub.StartedEvent, Progress{Source: sourcePath})

	n, err := in.ingest(ctx, sourcePath)
	if err != nil {
		in.publish(pubsub.FailedEvent, Progress{Source: sourcePath, Err: err})
		return 0, err
	}
	in.publish(pubsub.FinishedEvent, Progress{Source: sourcePath, Stage: StageStored, Count: n})
	return n, nil
}

func (in *Ingestor) ingest(ctx context.Context, sourcePath string) (int, error) {
	docs, err := in.loader.Load(ctx, sourcePath)
	if err != nil {
		return 0, kindOr(err, llm.ErrLoad, "ingest")
	}

	in.publish(pubsub.ProgressEvent, Progress{Source: sourcePath, Stage: StageLoaded, Count: len(docs)})

	chunks := in.splitter.Split(docs)
	in.publish(pubsub.ProgressEvent, Progress{Source: sourcePath, Stage: StageSplit, Count: len(chunks)})
	in.logger.Info("document split",
		zap.String("source", sourcePath),
		zap.Int("pages", len(docs)),
		zap.Int("chunks", len(chunks)),
	)
	if len(chunks) == 0 {
		in.logger.Warn("no text to ingest", zap.String("source", sourcePath))
		return 0, nil
	}

	enriched := dedupe(chunks)
	if dropped := len(chunks) - len(enriched); dropped > 0 {
		in.logger.Debug("collapsed duplicate chunks", zap.Int("dropped", dropped))
	}

	texts := make([]string, len(enriched))
	for i, c := range enriched {
		texts[i] = c.Content
	}

	vectors, err := in.embeddings.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, kindOr(err, llm.ErrModel, "ingest")
	}
	in.publish(pubsub.ProgressEvent, Progress{Source: sourcePath, Stage: StageEmbedded, Count: len(vectors)})

	records := make([]llm.Record, len(enriched))
	for i, c := range enriched {
		records[i] = llm.Record{
			ID:       c.Metadata.DocumentID,
			Content:  c.Content,
			Metadata: c.Metadata,
			Vector:   vectors[i],
		}
	}

	if err := in.store.Upsert(ctx, records); err != nil {
		return 0, kindOr(err, llm.ErrStore, "ingest")
	}

	in.logger.Info("chunks stored", zap.Int("records", len(records)))
	if total, err := in.store.Count(ctx); err == nil {
		in.logger.Info("collection size", zap.Int64("records", total))
	} else {
		in.logger.Warn("could not count collection", zap.Error(err))
	}

	return len(records), nil
}

// dedupe enriches chunks and keeps the first chunk for each identity
func dedupe(chunks []llm.Document) []llm.Document {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]llm.Document, 0, len(chunks))
	for _, c := range chunks {
		e := vector.Enrich(c)
		if _, dup := seen[e.Metadata.DocumentID]; dup {
			continue
		}
		seen[e.Metadata.DocumentID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// kindOr returns err unchanged when it already carries kind, otherwise wraps it
func kindOr(err, kind error, op string) error {
	if errors.Is(err, kind) {
		return err
	}
	return llm.Wrap(kind, op, err)
}
