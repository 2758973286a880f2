package parser

import (
	"context"
	"strings"

	"pdfqa/llm"
)

// TxtParser handles plain text files
type TxtParser struct{}

// NewTxtParser creates a new plain text parser
func NewTxtParser() *TxtParser {
	return &TxtParser{}
}

// ParseFile reads a plain text file as a single page
func (p *TxtParser) ParseFile(ctx context.Context, filePath string) ([]llm.Document, error) {
	content, err := ReadFileContent(filePath)
	if err != nil {
		return nil, err
	}

	return singlePage(filePath, content, map[string]any{
		"title":      ExtractTitle(content, filePath),
		"line_count": strings.Count(content, "\n") + 1,
	}), nil
}

// FileType returns the file type this parser handles
func (p *TxtParser) FileType() FileType {
	return FileTypeTXT
}
