package parser

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"pdfqa/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileTypeFromExt(t *testing.T) {
	cases := map[string]FileType{
		"pdf":      FileTypePDF,
		"PDF":      FileTypePDF,
		"md":       FileTypeMD,
		"markdown": FileTypeMD,
		"htm":      FileTypeHTML,
		"html":     FileTypeHTML,
		"txt":      FileTypeTXT,
		"docx":     FileTypeUnknown,
		"":         FileTypeUnknown,
	}
	for ext, want := range cases {
		assert.Equal(t, want, FileTypeFromExt(ext), ext)
	}
}

func TestTxtParser(t *testing.T) {
	path := writeTemp(t, "notes.txt", "Release notes\n\nThe limit is 42 requests.")

	docs, err := NewTxtParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Release notes\n\nThe limit is 42 requests.", docs[0].Content)
	assert.Equal(t, path, docs[0].Metadata.Source)
	require.NotNil(t, docs[0].Metadata.Page)
	assert.Equal(t, 0, *docs[0].Metadata.Page)
	assert.Equal(t, "Release notes", docs[0].Metadata.Extra["title"])
}

func TestMarkdownParserFrontmatter(t *testing.T) {
	path := writeTemp(t, "guide.md", "---\ntitle: \"Install Guide\"\nauthor: ops\n---\n# Setup\n\nRun **make** and see [docs](http://x).\n\n\n\nDone.")

	docs, err := NewMarkdownParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Setup\n\nRun make and see docs.\n\nDone.", docs[0].Content)
	assert.Equal(t, "Install Guide", docs[0].Metadata.Extra["title"])
	assert.Equal(t, "ops", docs[0].Metadata.Extra["author"])
}

func TestMarkdownParserWithoutFrontmatter(t *testing.T) {
	path := writeTemp(t, "plain.md", "# Heading\n\nbody")

	docs, err := NewMarkdownParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Heading", docs[0].Metadata.Extra["title"])
	assert.Equal(t, "Heading\n\nbody", docs[0].Content)
}

func TestHTMLParser(t *testing.T) {
	html := `<html><head><title>Pricing</title><style>p{}</style></head>
<body><h1>Plans</h1><p>The basic plan costs <b>10</b> dollars.</p><script>alert(1)</script></body></html>`
	path := writeTemp(t, "pricing.html", html)

	docs, err := NewHTMLParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Pricing", docs[0].Metadata.Extra["title"])
	assert.Contains(t, docs[0].Content, "Plans")
	assert.Contains(t, docs[0].Content, "**10**")
	assert.NotContains(t, docs[0].Content, "alert")
}

func TestRegistryLoadUnknownExtension(t *testing.T) {
	path := writeTemp(t, "sheet.xlsx", "x")

	_, err := DefaultRegistry().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrLoad)
}

func TestRegistryLoadMissingFile(t *testing.T) {
	_, err := DefaultRegistry().Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistryLoadNotAPDF(t *testing.T) {
	path := writeTemp(t, "fake.pdf", "this is not a pdf")

	_, err := DefaultRegistry().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrLoad)
}

func TestRegistryDispatch(t *testing.T) {
	reg := DefaultRegistry()
	for _, name := range []string{"a.pdf", "b.md", "c.html", "d.txt"} {
		_, ok := reg.GetParserForPath(name)
		assert.True(t, ok, name)
	}
	_, ok := reg.GetParserForPath("e.docx")
	assert.False(t, ok)
}

func TestPDFParserOneDocumentPerPage(t *testing.T) {
	path := filepath.Join("testdata", "two_pages.pdf")

	docs, err := NewPDFParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	wantText := []string{
		"The basic plan costs 10 dollars per month.",
		"Refunds are processed within 30 days.",
	}
	for i, doc := range docs {
		assert.Contains(t, doc.Content, wantText[i])
		assert.Equal(t, path, doc.Metadata.Source)
		require.NotNil(t, doc.Metadata.Page)
		assert.Equal(t, i, *doc.Metadata.Page, "pages are 0-based")
		assert.Equal(t, strconv.Itoa(i+1), doc.Metadata.Extra["page_label"])
		assert.Equal(t, 2, doc.Metadata.Extra["total_pages"])
		assert.Empty(t, doc.Metadata.DocumentID)
	}
}

func TestRegistryLoadPDFInPageOrder(t *testing.T) {
	path := filepath.Join("testdata", "two_pages.pdf")

	docs, err := DefaultRegistry().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "0", docs[0].Metadata.PageString())
	assert.Equal(t, "1", docs[1].Metadata.PageString())
	assert.Contains(t, docs[0].Content, "basic plan")
	assert.Contains(t, docs[1].Content, "Refunds")
}
