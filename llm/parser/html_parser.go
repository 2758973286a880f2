package parser

import (
	"context"
	"fmt"
	"strings"

	"pdfqa/llm"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// HTMLParser handles HTML files by converting the body to markdown text
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		converter: md.NewConverter("", true, nil),
	}
}

// ParseFile reads and parses an HTML file as a single page
func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) ([]llm.Document, error) {
	raw, err := ReadFileContent(filePath)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body, err = doc.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to render HTML: %w", err)
		}
	}

	markdown, err := p.converter.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to markdown: %w", err)
	}

	extra := map[string]any{}
	if title != "" {
		extra["title"] = title
	}

	return singlePage(filePath, strings.TrimSpace(markdown), extra), nil
}

// FileType returns the file type this parser handles
func (p *HTMLParser) FileType() FileType {
	return FileTypeHTML
}
