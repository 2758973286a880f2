// Command ingest loads the configured PDF, splits and embeds it, and writes the
// chunks to the vector store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"pdfqa/config"
	"pdfqa/llm/rag"
	"pdfqa/llm/runtime"
	"pdfqa/logging"
	"pdfqa/pubsub"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the configured PDF into the vector store",
	Long: `Ingest reads PDF_PATH, splits it into overlapping chunks, embeds them and
upserts them into VECTOR_STORE_COLLECTION at VECTOR_STORE_URL.

Settings come from the environment and an optional .env file.
Re-running on an unchanged document rewrites the same records.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIngest,
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ModeIngest)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Configuration error: %v\n", err)
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := runtime.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	broker := pubsub.NewBroker[rag.Progress]()
	defer broker.Shutdown()

	progressCtx, cancelProgress := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printProgress(cmd.OutOrStdout(), broker.Subscribe(progressCtx))
	}()

	n, err := rt.Ingestor().WithProgress(broker).Ingest(ctx, cfg.PDFPath)
	cancelProgress()
	wg.Wait()

	if err != nil {
		logger.Error("ingestion failed", zap.String("source", cfg.PDFPath), zap.Error(err))
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Ingestion interrupted.")
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Ingestion failed: %v\n", err)
		}
		return err
	}

	if n == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No text found in %s; nothing was stored.\n", cfg.PDFPath)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingestion complete: %d chunks stored in %q.\n", n, cfg.VectorStoreCollection)
	return nil
}

// printProgress writes one line per completed stage until events closes
func printProgress(w io.Writer, events <-chan pubsub.Event[rag.Progress]) {
	for ev := range events {
		if ev.Type != pubsub.ProgressEvent {
			continue
		}
		switch ev.Payload.Stage {
		case rag.StageLoaded:
			fmt.Fprintf(w, "Loaded %d pages from %s\n", ev.Payload.Count, ev.Payload.Source)
		case rag.StageSplit:
			fmt.Fprintf(w, "Split into %d chunks\n", ev.Payload.Count)
		case rag.StageEmbedded:
			fmt.Fprintf(w, "Embedded %d chunks\n", ev.Payload.Count)
		}
	}
}
