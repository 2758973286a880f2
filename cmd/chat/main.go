// Command chat answers questions about the ingested document.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pdfqa/config"
	"pdfqa/llm/runtime"
	"pdfqa/logging"
	"pdfqa/tui/chat"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the ingested PDF",
	Long: `Chat answers questions using only the chunks stored by ingest.
Questions with no answer in the document get a fixed refusal.

Type 'sair' or 'exit' to quit. A full-screen interface is used when stdin and
stdout are terminals, a plain line prompt otherwise.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ModeChat)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Configuration error: %v\n", err)
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if interactive {
		// the full-screen UI owns the terminal
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	}
	defer func() { _ = logger.Sync() }()

	rt, err := runtime.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not start the chat: %v\n", err)
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	answerer, refusal, err := rt.Answerer(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not start the chat: %v\n", err)
		return err
	}

	if interactive {
		return chat.Run(ctx, answerer, refusal, logger)
	}
	return chat.NewSession(answerer, cmd.InOrStdin(), cmd.OutOrStdout(), logger).Run(ctx)
}
