package component

import (
	"pdfqa/tui/component/renderer"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ListModel holds the transcript and the viewport it scrolls in.
// Rendering is delegated to a TranscriptRenderer.
type ListModel struct {
	viewport viewport.Model
	entries  []renderer.Entry
	width    int
	height   int
	ready    bool

	renderer *renderer.TranscriptRenderer
}

// NewListModel creates an empty transcript showing welcome
func NewListModel(welcome string) ListModel {
	r := renderer.NewTranscriptRenderer(nil, welcome)

	vp := viewport.New(30, 5)
	vp.SetContent(r.Render(nil))

	return ListModel{
		viewport: vp,
		entries:  make([]renderer.Entry, 0),
		renderer: r,
		width:    30,
		height:   5,
		ready:    true,
	}
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.MouseMsg); ok {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.viewport.View()
}

// Append adds an entry and scrolls to it
func (m *ListModel) Append(e renderer.Entry) {
	m.entries = append(m.entries, e)
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

// Entries returns the transcript so far
func (m *ListModel) Entries() []renderer.Entry {
	return m.entries
}

// SetSize resizes the viewport; height is clamped to at least 1
func (m *ListModel) SetSize(width, height int) {
	m.width = width
	m.height = height

	if height < 1 {
		height = 1
	}

	m.viewport.Width = width
	m.viewport.Height = height
	m.ready = true

	m.renderer.SetViewportWidth(width)
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

func (m *ListModel) updateViewportContent() {
	m.viewport.SetContent(m.renderer.Render(m.entries))
}
