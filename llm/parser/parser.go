package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pdfqa/llm"
)

// FileType represents the type of document file
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeMD      FileType = "md"
	FileTypeHTML    FileType = "html"
	FileTypeTXT     FileType = "txt"
	FileTypeUnknown FileType = "unknown"
)

// Parser defines the interface for document loaders.
// A loader turns one file into an ordered sequence of documents (one per page for paged formats).
type Parser interface {
	// ParseFile reads and parses a document from a file path
	ParseFile(ctx context.Context, filePath string) ([]llm.Document, error)

	// FileType returns the file type this parser handles
	FileType() FileType
}

// Registry holds all registered parsers
type Registry struct {
	parsers map[FileType]Parser
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[FileType]Parser),
	}
}

// Register adds a parser to the registry
func (r *Registry) Register(p Parser) {
	r.parsers[p.FileType()] = p
}

// GetParser returns a parser for the given file type
func (r *Registry) GetParser(ft FileType) (Parser, bool) {
	p, ok := r.parsers[ft]
	return p, ok
}

// GetParserForPath returns a parser for the given file path
func (r *Registry) GetParserForPath(filePath string) (Parser, bool) {
	ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
	ft := FileTypeFromExt(ext)
	return r.GetParser(ft)
}

// Load parses a file using the appropriate parser.
// Every failure is reported as llm.ErrLoad.
func (r *Registry) Load(ctx context.Context, filePath string) ([]llm.Document, error) {
	parser, ok := r.GetParserForPath(filePath)
	if !ok {
		return nil, llm.Wrap(llm.ErrLoad, "load", fmt.Errorf("no parser found for file: %s", filePath))
	}

	docs, err := parser.ParseFile(ctx, filePath)
	if err != nil {
		return nil, llm.Wrap(llm.ErrLoad, "load", err)
	}
	return docs, nil
}

// FileTypeFromExt converts a file extension to FileType
func FileTypeFromExt(ext string) FileType {
	switch strings.ToLower(ext) {
	case "pdf":
		return FileTypePDF
	case "md", "markdown":
		return FileTypeMD
	case "html", "htm":
		return FileTypeHTML
	case "txt":
		return FileTypeTXT
	default:
		return FileTypeUnknown
	}
}

// String returns the string representation of the FileType
func (ft FileType) String() string {
	return string(ft)
}

// DefaultRegistry returns a registry with all default parsers registered
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewPDFParser())
	reg.Register(NewTxtParser())
	reg.Register(NewMarkdownParser())
	reg.Register(NewHTMLParser())
	return reg
}

// ReadFileContent reads file content for basic parsers
func ReadFileContent(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// ExtractTitle extracts a title from content (first line or heading)
func ExtractTitle(content, filePath string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return filepath.Base(filePath)
	}

	// Try to get first non-empty line as title
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			// Remove markdown heading markers
			line = strings.TrimLeft(line, "#")
			line = strings.TrimSpace(line)
			if line != "" && len(line) < 100 {
				return line
			}
			break
		}
	}

	return filepath.Base(filePath)
}

// singlePage wraps whole-file content as one document with the shared metadata layout
func singlePage(filePath, content string, extra map[string]any) []llm.Document {
	return []llm.Document{{
		Content: content,
		Metadata: llm.Metadata{
			Source: filePath,
			Page:   llm.PageOf(0),
			Extra:  extra,
		},
	}}
}
