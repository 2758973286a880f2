package parser

import (
	"context"
	"regexp"
	"strings"

	"pdfqa/llm"
)

var (
	mdHeadingRe = regexp.MustCompile(`(?m)^#+\s+(.*)$`)
	mdImageRe   = regexp.MustCompile(`!\[([^\]]*)\]\([^\)]+\)`)
	mdLinkRe    = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
)

// MarkdownParser handles markdown files.
// Front matter becomes metadata; formatting markers are stripped for better embedding.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// ParseFile reads and parses a markdown file as a single page
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) ([]llm.Document, error) {
	raw, err := ReadFileContent(filePath)
	if err != nil {
		return nil, err
	}

	extra := p.extractFrontmatter(raw)
	body := p.removeFrontmatter(raw)
	if _, ok := extra["title"]; !ok {
		extra["title"] = ExtractTitle(body, filePath)
	}

	return singlePage(filePath, p.cleanMarkdown(body), extra), nil
}

// extractFrontmatter parses simple key: value pairs from YAML front matter
func (p *MarkdownParser) extractFrontmatter(content string) map[string]any {
	metadata := make(map[string]any)
	if !hasFrontmatter(content) {
		return metadata
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			break
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
			metadata[key] = value
		}
	}

	return metadata
}

// removeFrontmatter removes YAML front matter from content
func (p *MarkdownParser) removeFrontmatter(content string) string {
	if !hasFrontmatter(content) {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}

// hasFrontmatter checks if content has YAML front matter
func hasFrontmatter(content string) bool {
	lines := strings.Split(content, "\n")
	return len(lines) >= 2 && strings.TrimSpace(lines[0]) == "---"
}

// cleanMarkdown strips formatting but keeps paragraph breaks, which the splitter relies on
func (p *MarkdownParser) cleanMarkdown(content string) string {
	content = mdHeadingRe.ReplaceAllString(content, "$1")
	content = mdImageRe.ReplaceAllString(content, "$1")
	content = mdLinkRe.ReplaceAllString(content, "$1")
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	var paragraphs []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}
