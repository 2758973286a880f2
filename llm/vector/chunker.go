package vector

import (
	"strings"
	"unicode/utf8"

	"pdfqa/llm"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// separators are tried in order: paragraph, line, word, character
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter splits documents into overlapping chunks.
// Sizes are measured in characters (runes), not bytes.
type Splitter struct {
	ChunkSize    int // Maximum chunk size in characters
	ChunkOverlap int // Overlap carried between consecutive chunks
}

// NewSplitter creates a splitter, falling back to defaults for out-of-range values
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// Split splits every document into chunks. Each chunk inherits a copy of its
// parent's metadata; document order and chunk order are preserved.
func (s *Splitter) Split(docs []llm.Document) []llm.Document {
	var chunks []llm.Document
	for _, doc := range docs {
		for _, text := range s.SplitText(doc.Content) {
			chunks = append(chunks, llm.Document{
				Content:  text,
				Metadata: doc.Metadata.Clone(),
			})
		}
	}
	return chunks
}

// SplitText splits a single text. Blank text yields no chunks.
func (s *Splitter) SplitText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if runeLen(trimmed) <= s.ChunkSize {
		return []string{trimmed}
	}
	return s.splitRecursive(text, separators)
}

// splitRecursive splits on the first separator present in text and recurses
// into pieces that are still too large with the remaining separators
func (s *Splitter) splitRecursive(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var (
		final []string
		good  []string
	)
	for _, piece := range splitOn(text, sep) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			final = append(final, s.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitRecursive(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, sep)...)
	}
	return final
}

// merge packs small pieces into chunks of at most ChunkSize, starting each new
// chunk with a tail of the previous one no longer than ChunkOverlap
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)

	var (
		chunks  []string
		current []string
		total   int
	)
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n+joinCost() > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap || (total > 0 && total+n+joinCost() > s.ChunkSize) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total += n + joinCost()
		current = append(current, piece)
	}

	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitOn splits text on sep; the empty separator splits into characters
func splitOn(text, sep string) []string {
	if sep != "" {
		return strings.Split(text, sep)
	}
	pieces := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		pieces = append(pieces, string(r))
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
