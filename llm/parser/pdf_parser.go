package parser

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"pdfqa/llm"

	"github.com/tmc/langchaingo/documentloaders"
)

// PDFParser handles PDF files, producing one document per page.
// Pages are numbered from 0; page_label keeps the 1-based number a reader sees.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// ParseFile reads and parses a PDF file
func (p *PDFParser) ParseFile(ctx context.Context, filePath string) ([]llm.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}

	docs := make([]llm.Document, 0, len(pages))
	for i, page := range pages {
		docs = append(docs, llm.Document{
			Content: page.PageContent,
			Metadata: llm.Metadata{
				Source: filePath,
				Page:   llm.PageOf(i),
				Extra: map[string]any{
					"page_label":  strconv.Itoa(i + 1),
					"total_pages": len(pages),
				},
			},
		})
	}

	return docs, nil
}

// FileType returns the file type this parser handles
func (p *PDFParser) FileType() FileType {
	return FileTypePDF
}
