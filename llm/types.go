package llm

import (
	"fmt"
	"strconv"
)

// Well-known metadata keys used when metadata is flattened for storage
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaDocumentID = "document_id"
)

// Metadata describes where a piece of text came from.
// Source and Page feed the chunk identity; everything else lives in Extra.
type Metadata struct {
	Source     string
	Page       *int
	DocumentID string
	Extra      map[string]any
}

// Document represents a unit of retrievable text: a loaded page or a chunk of one
type Document struct {
	Content  string
	Metadata Metadata
}

// Record is a chunk ready for the vector store, keyed by its identity
type Record struct {
	ID       string
	Content  string
	Metadata Metadata
	Vector   []float32
}

// SearchResult represents a search result with relevance score
type SearchResult struct {
	Document Document
	Score    float32
}

// PageOf returns a pointer to n, for building Metadata literals
func PageOf(n int) *int {
	return &n
}

// PageString returns the page number as decimal text, or "" when absent
func (m Metadata) PageString() string {
	if m.Page == nil {
		return ""
	}
	return strconv.Itoa(*m.Page)
}

// Clone returns a deep copy of the metadata
func (m Metadata) Clone() Metadata {
	out := Metadata{
		Source:     m.Source,
		DocumentID: m.DocumentID,
	}
	if m.Page != nil {
		out.Page = PageOf(*m.Page)
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Map flattens the metadata into a plain map for store payloads.
// Absent well-known fields are omitted.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Source != "" {
		out[MetaSource] = m.Source
	}
	if m.Page != nil {
		out[MetaPage] = *m.Page
	}
	if m.DocumentID != "" {
		out[MetaDocumentID] = m.DocumentID
	}
	return out
}

// MetadataFromMap rebuilds Metadata from a flattened store payload.
// Backends hand numbers back in different shapes, so page accepts ints, floats and decimal strings.
func MetadataFromMap(raw map[string]any) Metadata {
	var m Metadata
	for k, v := range raw {
		switch k {
		case MetaSource:
			m.Source = fmt.Sprint(v)
		case MetaDocumentID:
			m.DocumentID = fmt.Sprint(v)
		case MetaPage:
			if page, ok := toInt(v); ok {
				m.Page = PageOf(page)
			}
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = v
		}
	}
	return m
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
