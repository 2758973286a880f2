package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"

	"pdfqa/llm"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// stubLoader returns fixed documents
type stubLoader struct {
	docs []llm.Document
	err  error
}

func (l *stubLoader) Load(ctx context.Context, path string) ([]llm.Document, error) {
	return l.docs, l.err
}

// wordEmbedder is a deterministic bag-of-words embedder
type wordEmbedder struct {
	calls int
	err   error
}

const wordDims = 64

func (e *wordEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, wordDims)
		vec[0] = 0.1 // keeps every vector non-zero
		for _, w := range tokenize(text) {
			h := fnv.New32a()
			h.Write([]byte(w))
			vec[1+int(h.Sum32()%(wordDims-1))]++
		}
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		for j := range vec {
			vec[j] /= norm
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// recordingStore counts calls and can fail on demand
type recordingStore struct {
	upserts  [][]llm.Record
	searches int
	results  []llm.SearchResult
	err      error
}

func (s *recordingStore) Upsert(ctx context.Context, records []llm.Record) error {
	s.upserts = append(s.upserts, records)
	return s.err
}

func (s *recordingStore) SimilaritySearch(ctx context.Context, vector []float32, k int) ([]llm.SearchResult, error) {
	s.searches++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *recordingStore) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *recordingStore) Close() error {
	return nil
}

func (s *recordingStore) calls() int {
	return len(s.upserts) + s.searches
}

// scriptedModel answers with reply(prompt) and records every prompt it sees
type scriptedModel struct {
	prompts []string
	reply   func(prompt string) string
	err     error
}

var _ model.BaseChatModel = (*scriptedModel)(nil)

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var sb strings.Builder
	for _, msg := range input {
		sb.WriteString(msg.Content)
	}
	m.prompts = append(m.prompts, sb.String())
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply(sb.String()), nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// groundedReply mimics an obedient model: it quotes the first context sentence
// mentioning every content word of the question, or refuses when none does.
// A question word matches any sentence word it prefixes ("cost" matches "costs").
func groundedReply(refusal string) func(string) string {
	stop := map[string]bool{"what": true, "is": true, "the": true, "of": true, "a": true, "how": true, "much": true, "does": true}

	return func(prompt string) string {
		contextText, question := splitPrompt(prompt)

		var wanted []string
		for _, w := range tokenize(question) {
			if !stop[w] {
				wanted = append(wanted, w)
			}
		}
		if len(wanted) == 0 {
			return refusal
		}

		for _, sentence := range strings.Split(contextText, ".") {
			words := tokenize(sentence)
			covered := true
			for _, w := range wanted {
				if !hasPrefixWord(words, w) {
					covered = false
					break
				}
			}
			if covered {
				return "  " + strings.TrimSpace(sentence) + ".\n"
			}
		}
		return refusal
	}
}

func hasPrefixWord(words []string, prefix string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

// splitPrompt extracts the context and question blocks of the English template
func splitPrompt(prompt string) (string, string) {
	ctxStart := strings.Index(prompt, "CONTEXT:\n") + len("CONTEXT:\n")
	ctxEnd := strings.Index(prompt, "\n\nRULES:")
	qStart := strings.Index(prompt, "USER QUESTION:\n") + len("USER QUESTION:\n")
	qEnd := strings.Index(prompt, "\n\nANSWER THE")
	return prompt[ctxStart:ctxEnd], prompt[qStart:qEnd]
}
