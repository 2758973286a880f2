package rag

import (
	"strings"

	"pdfqa/llm"
)

// ContextSeparator sits between chunks in the formatted context
const ContextSeparator = "\n\n---\n\n"

// FormatContext joins chunk contents in retrieval order.
// Nothing is truncated, reranked or deduplicated.
func FormatContext(results []llm.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Document.Content
	}
	return strings.Join(parts, ContextSeparator)
}
