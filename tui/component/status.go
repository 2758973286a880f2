package component

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	statusReady     = "Ready"
	statusSearching = "SEARCHING..."
)

// StatusModel shows a spinner while a question is in flight
type StatusModel struct {
	spinner spinner.Model
	running bool
	text    string
	width   int
}

func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Jump
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return StatusModel{
		spinner: s,
		text:    statusReady,
	}
}

// Init does not start the spinner; Start does
func (m StatusModel) Init() tea.Cmd {
	return nil
}

// Update advances the spinner while running
func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	if !m.running {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m StatusModel) View() string {
	style := lipgloss.NewStyle().Padding(1, 0)
	content := m.text
	if m.running {
		content = fmt.Sprintf("%s %s", m.spinner.View(), m.text)
	}
	if m.width > 0 {
		style = style.MaxWidth(m.width)
	}
	return style.Render(content)
}

// Start shows the searching state and returns the first spinner tick
func (m *StatusModel) Start() tea.Cmd {
	m.running = true
	m.text = statusSearching
	return m.spinner.Tick
}

// Stop returns to the idle state with text, or "Ready" when text is empty
func (m *StatusModel) Stop(text string) {
	m.running = false
	if text == "" {
		text = statusReady
	}
	m.text = text
}

func (m *StatusModel) SetWidth(width int) {
	m.width = width
}

func (m StatusModel) IsRunning() bool {
	return m.running
}

func (m StatusModel) Text() string {
	return m.text
}
