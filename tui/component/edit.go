package component

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EditorSubmitMsg carries the line the user submitted with Enter
type EditorSubmitMsg struct {
	Value string
}

// EditModel is the single-line question box
type EditModel struct {
	textarea textarea.Model
	width    int
}

// NewEditModel creates a focused question box
func NewEditModel() EditModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question about the document..."
	ta.Focus()

	ta.Prompt = "> "
	ta.CharLimit = 1000

	ta.SetWidth(30)
	ta.SetHeight(1)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	// Enter submits instead of inserting a newline
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return EditModel{
		textarea: ta,
		width:    30,
	}
}

func (m EditModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update submits on Enter. Keys are ignored while the box is blurred.
func (m EditModel) Update(msg tea.Msg) (EditModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if !m.textarea.Focused() {
			return m, nil
		}
		if key.Type == tea.KeyEnter {
			value := m.textarea.Value()
			m.textarea.Reset()
			return m, func() tea.Msg {
				return EditorSubmitMsg{Value: value}
			}
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *EditModel) View() string {
	return m.textarea.View()
}

func (m *EditModel) SetWidth(width int) {
	m.width = width
	m.textarea.SetWidth(width)
}

func (m *EditModel) Focus() tea.Cmd {
	return m.textarea.Focus()
}

func (m *EditModel) Blur() {
	m.textarea.Blur()
}

func (m *EditModel) Focused() bool {
	return m.textarea.Focused()
}

func (m *EditModel) Height() int {
	return m.textarea.Height()
}
