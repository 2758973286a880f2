package renderer

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Role identifies who produced a transcript entry
type Role int

const (
	RoleQuestion Role = iota
	RoleAnswer
	RoleRefusal
	RoleError
	RoleSystem
)

// Entry is one line of the chat transcript
type Entry struct {
	Role    Role
	Text    string
	Elapsed time.Duration
}

// TranscriptRenderer renders the question/answer transcript
type TranscriptRenderer struct {
	markdownRenderer *glamour.TermRenderer
	styles           *TranscriptStyles
	welcome          string
	renderedCache    []string
	viewportWidth    int
}

// NewTranscriptRenderer creates a renderer; welcome is shown while the transcript is empty
func NewTranscriptRenderer(styles *TranscriptStyles, welcome string) *TranscriptRenderer {
	if styles == nil {
		styles = DefaultTranscriptStyles()
	}

	// word wrap is left to the viewport width
	markdownRenderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(0),
	)
	return &TranscriptRenderer{
		markdownRenderer: markdownRenderer,
		styles:           styles,
		welcome:          welcome,
		renderedCache:    make([]string, 0),
	}
}

// SetViewportWidth sets the wrap width and drops cached renderings
func (r *TranscriptRenderer) SetViewportWidth(width int) {
	if width != r.viewportWidth {
		r.renderedCache = r.renderedCache[:0]
	}
	r.viewportWidth = width
}

// Render renders every entry, reusing cached output for entries seen before
func (r *TranscriptRenderer) Render(entries []Entry) string {
	if len(entries) == 0 {
		return r.styles.System.Render(r.welcome)
	}

	if len(entries) < len(r.renderedCache) {
		r.renderedCache = r.renderedCache[:0]
	}
	for i := len(r.renderedCache); i < len(entries); i++ {
		r.renderedCache = append(r.renderedCache, r.RenderEntry(entries[i]))
	}

	content := strings.Join(r.renderedCache, "\n\n")
	if r.viewportWidth > 0 {
		return lipgloss.NewStyle().Width(r.viewportWidth).Render(content)
	}
	return content
}

// RenderEntry renders a single entry
func (r *TranscriptRenderer) RenderEntry(e Entry) string {
	switch e.Role {
	case RoleQuestion:
		return r.styles.Question.Render("QUESTION:") + " " + e.Text
	case RoleAnswer:
		return r.styles.Answer.Render("ANSWER:") + r.elapsed(e) + "\n" + r.renderMarkdown(e.Text)
	case RoleRefusal:
		return r.styles.Answer.Render("ANSWER:") + r.elapsed(e) + "\n" + r.styles.Indent.Render(r.styles.Refusal.Render(e.Text))
	case RoleError:
		return r.styles.Error.Render("ERROR:") + " " + e.Text
	}
	return r.styles.System.Render(e.Text)
}

func (r *TranscriptRenderer) elapsed(e Entry) string {
	if e.Elapsed <= 0 {
		return ""
	}
	return " " + r.styles.Sources.Render("("+FormatDuration(e.Elapsed)+")")
}

// renderMarkdown falls back to the raw text when glamour fails
func (r *TranscriptRenderer) renderMarkdown(content string) string {
	if r.markdownRenderer == nil {
		return content
	}
	rendered, err := r.markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	// glamour pads the output with blank lines
	return strings.Trim(rendered, "\n")
}
