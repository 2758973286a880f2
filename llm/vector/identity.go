package vector

import (
	"crypto/sha256"
	"encoding/hex"

	"pdfqa/llm"
)

// IDPrefix starts every chunk identity
const IDPrefix = "doc-"

// ChunkIdentity derives the stable storage key of a chunk from its source, page and content.
// Re-ingesting an unchanged document yields the same keys, so records are overwritten in place.
func ChunkIdentity(chunk llm.Document) string {
	h := sha256.New()
	h.Write([]byte(chunk.Metadata.Source))
	h.Write([]byte("|"))
	h.Write([]byte(chunk.Metadata.PageString()))
	h.Write([]byte("|"))
	h.Write([]byte(chunk.Content))
	return IDPrefix + hex.EncodeToString(h.Sum(nil))
}

// Enrich returns a copy of chunk whose metadata has empty values removed and
// DocumentID set to the chunk identity. The input is not modified.
func Enrich(chunk llm.Document) llm.Document {
	meta := chunk.Metadata.Clone()
	for k, v := range meta.Extra {
		if isEmpty(v) {
			delete(meta.Extra, k)
		}
	}
	if len(meta.Extra) == 0 {
		meta.Extra = nil
	}
	meta.DocumentID = ChunkIdentity(chunk)

	return llm.Document{
		Content:  chunk.Content,
		Metadata: meta,
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
