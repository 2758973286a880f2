package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	bannerTitle = "PDF Q&A - Semantic Ingestion and Search"
	bannerRules = "Rules: Answers ONLY based on the PDF provided during ingestion."
	bannerHint  = "Type 'sair' or 'exit' to quit."
	goodbye     = "Closing the chat. Goodbye!"
)

// Asker answers one question
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Session is the line-oriented chat loop used when stdin is not a terminal
type Session struct {
	asker  Asker
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger
}

// NewSession creates a session reading questions from in and writing to out
func NewSession(asker Asker, in io.Reader, out io.Writer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Session{
		asker:  asker,
		in:     scanner,
		out:    out,
		logger: logger,
	}
}

// Run loops until an exit keyword, end of input or ctx cancellation.
// A failed question is reported and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	s.printf("\n%s\n%s\n%s\n%s\n%s\n\n", rule(), bannerTitle, bannerRules, bannerHint, rule())

	for {
		if err := ctx.Err(); err != nil {
			s.printf("\n%s\n", goodbye)
			return nil
		}

		s.printf("QUESTION: ")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			s.printf("\n%s\n", goodbye)
			return nil
		}

		line := s.in.Text()
		switch Classify(line) {
		case ActionExit:
			s.printf("%s\n", goodbye)
			return nil
		case ActionSkip:
			continue
		}

		question := strings.TrimSpace(line)
		s.printf("SEARCHING...\n")
		answer, err := s.asker.Ask(ctx, question)
		if err != nil {
			s.logger.Warn("question failed", zap.String("question", question), zap.Error(err))
			s.printf("\nAn error occurred: %v\n\n", err)
			continue
		}
		s.printf("\nANSWER: %s\n\n", answer)
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func rule() string {
	return strings.Repeat("=", 80)
}
