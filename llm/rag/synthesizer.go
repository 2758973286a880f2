package rag

import (
	"context"
	"fmt"
	"strings"

	"pdfqa/llm"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// Synthesizer produces an answer from a question and formatted context.
// The chain ChatTemplate -> ChatModel -> text extraction is compiled once.
type Synthesizer struct {
	runnable compose.Runnable[map[string]any, string]
	prompt   Prompt
	handlers []callbacks.Handler
	logger   *zap.Logger
}

// NewSynthesizer compiles the answer chain around cm, which should be configured with temperature 0.
// handlers receive callbacks for every run of the chain, e.g. a tracing handler.
func NewSynthesizer(ctx context.Context, cm model.BaseChatModel, p Prompt, logger *zap.Logger, handlers ...callbacks.Handler) (*Synthesizer, error) {
	if cm == nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "synthesizer", fmt.Errorf("chat model is required"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tpl := prompt.FromMessages(schema.FString, schema.UserMessage(p.Template))

	chain := compose.NewChain[map[string]any, string]().
		AppendChatTemplate(tpl).
		AppendChatModel(cm).
		AppendLambda(compose.InvokableLambda(extractText))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, llm.Wrap(llm.ErrModel, "synthesizer", fmt.Errorf("failed to compile answer chain: %w", err))
	}

	return &Synthesizer{runnable: runnable, prompt: p, handlers: handlers, logger: logger}, nil
}

// extractText returns the trimmed reply; an empty reply is an error
func extractText(ctx context.Context, msg *schema.Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("model returned no message")
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", fmt.Errorf("model returned an empty answer")
	}
	return text, nil
}

// Answer asks the model to answer question using only contextText
func (s *Synthesizer) Answer(ctx context.Context, question, contextText string) (string, error) {
	var opts []compose.Option
	if len(s.handlers) > 0 {
		opts = append(opts, compose.WithCallbacks(s.handlers...))
	}

	answer, err := s.runnable.Invoke(ctx, map[string]any{
		varContext:  contextText,
		varQuestion: question,
	}, opts...)
	if err != nil {
		return "", llm.Wrap(llm.ErrModel, "answer", err)
	}

	s.logger.Debug("answer generated", zap.Int("context_chars", len(contextText)), zap.Int("answer_chars", len(answer)))
	return answer, nil
}

// Refusal returns the sentence used when the context has no answer
func (s *Synthesizer) Refusal() string {
	return s.prompt.Refusal
}
