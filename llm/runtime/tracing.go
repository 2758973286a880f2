package runtime

import (
	"context"
	"fmt"

	"pdfqa/config"
	"pdfqa/llm"

	clc "github.com/cloudwego/eino-ext/callbacks/cozeloop"
	"github.com/cloudwego/eino/callbacks"
	"github.com/coze-dev/cozeloop-go"
	"go.uber.org/zap"
)

// tracer holds the CozeLoop client and the eino handler reporting to it
type tracer struct {
	client  cozeloop.Client
	handler callbacks.Handler
}

// newTracer returns nil when tracing is not configured
func newTracer(cfg *config.Config, logger *zap.Logger) (*tracer, error) {
	if !cfg.TracingEnabled() {
		return nil, nil
	}

	client, err := cozeloop.NewClient(
		cozeloop.WithAPIToken(cfg.CozeLoopAPIToken),
		cozeloop.WithWorkspaceID(cfg.CozeLoopWorkspaceID),
	)
	if err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "tracing", fmt.Errorf("failed to create cozeloop client: %w", err))
	}

	logger.Info("cozeloop tracing enabled", zap.String("workspace", cfg.CozeLoopWorkspaceID))
	return &tracer{client: client, handler: clc.NewLoopHandler(client)}, nil
}

// handlers returns the callback handlers to attach to the answer chain
func (t *tracer) handlers() []callbacks.Handler {
	if t == nil {
		return nil
	}
	return []callbacks.Handler{t.handler}
}

// close flushes pending traces
func (t *tracer) close(ctx context.Context) {
	if t == nil {
		return
	}
	t.client.Close(ctx)
}
