package rag

import (
	"context"

	"go.uber.org/zap"
)

// Answerer runs retrieve -> format -> synthesize for one question
type Answerer struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	logger      *zap.Logger
}

// NewAnswerer creates the question-answering pipeline
func NewAnswerer(retriever *Retriever, synthesizer *Synthesizer, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		retriever:   retriever,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Ask answers question from the ingested document.
// With nothing retrieved the refusal is returned without calling the model.
func (a *Answerer) Ask(ctx context.Context, question string) (string, error) {
	results, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		a.logger.Debug("no context retrieved, refusing")
		return a.synthesizer.Refusal(), nil
	}

	return a.synthesizer.Answer(ctx, question, FormatContext(results))
}
