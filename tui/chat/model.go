// Package chat implements the interactive question loop, as a full-screen
// bubbletea program or as a plain line session.
package chat

import (
	"context"
	"strings"
	"time"

	"pdfqa/tui/component"
	"pdfqa/tui/component/renderer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// answerMsg reports the outcome of one question
type answerMsg struct {
	question string
	answer   string
	err      error
	elapsed  time.Duration
}

// Model is the bubbletea chat screen: transcript, status line and question box.
// One question is in flight at a time; the box is blurred until it completes.
type Model struct {
	ctx     context.Context
	asker   Asker
	refusal string
	logger  *zap.Logger

	list   component.ListModel
	edit   component.EditModel
	status component.StatusModel

	width  int
	height int
}

// NewModel creates the chat screen. Answers equal to refusal are styled as refusals.
func NewModel(ctx context.Context, asker Asker, refusal string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	welcome := strings.Join([]string{bannerTitle, bannerRules, bannerHint}, "\n")
	return Model{
		ctx:     ctx,
		asker:   asker,
		refusal: refusal,
		logger:  logger,
		list:    component.NewListModel(welcome),
		edit:    component.NewEditModel(),
		status:  component.NewStatusModel(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.edit.Init(), m.list.Init(), m.status.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}

	case component.EditorSubmitMsg:
		switch Classify(msg.Value) {
		case ActionExit:
			m.list.Append(renderer.Entry{Role: renderer.RoleSystem, Text: goodbye})
			return m, tea.Quit
		case ActionSkip:
			return m, nil
		}
		question := strings.TrimSpace(msg.Value)
		m.list.Append(renderer.Entry{Role: renderer.RoleQuestion, Text: question})
		m.edit.Blur()
		return m, tea.Batch(m.status.Start(), m.ask(question))

	case answerMsg:
		if msg.err != nil {
			m.logger.Warn("question failed", zap.String("question", msg.question), zap.Error(msg.err))
			m.list.Append(renderer.Entry{Role: renderer.RoleError, Text: msg.err.Error()})
			m.status.Stop("Failed after " + renderer.FormatDuration(msg.elapsed))
		} else {
			role := renderer.RoleAnswer
			if msg.answer == m.refusal {
				role = renderer.RoleRefusal
			}
			m.list.Append(renderer.Entry{Role: role, Text: msg.answer, Elapsed: msg.elapsed})
			m.status.Stop("")
		}
		cmds = append(cmds, m.edit.Focus())
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	m.edit, cmd = m.edit.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// ask runs the pipeline off the update loop
func (m Model) ask(question string) tea.Cmd {
	ctx, asker := m.ctx, m.asker
	return func() tea.Msg {
		start := time.Now()
		answer, err := asker.Ask(ctx, question)
		return answerMsg{question: question, answer: answer, err: err, elapsed: time.Since(start)}
	}
}

func (m *Model) layout() {
	m.edit.SetWidth(m.width)
	m.status.SetWidth(m.width)

	statusHeight := lipgloss.Height(m.status.View())
	m.list.SetSize(m.width, m.height-m.edit.Height()-statusHeight)
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.status.View(),
		m.edit.View(),
	)
}

// Busy reports whether a question is in flight
func (m Model) Busy() bool {
	return m.status.IsRunning()
}

// Transcript returns the entries shown so far
func (m Model) Transcript() []renderer.Entry {
	return m.list.Entries()
}

// Run starts the full-screen program and blocks until the user quits
func Run(ctx context.Context, asker Asker, refusal string, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(ctx, asker, refusal, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
