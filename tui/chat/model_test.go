package chat

import (
	"context"
	"errors"
	"testing"

	"pdfqa/tui/component"
	"pdfqa/tui/component/renderer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRefusal = "I don't have the necessary information to answer your question."

func newTestModel(asker Asker) Model {
	m := NewModel(context.Background(), asker, testRefusal, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

// collect runs cmd and any batched commands, returning the messages they produce
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findAnswer(t *testing.T, msgs []tea.Msg) answerMsg {
	t.Helper()
	for _, msg := range msgs {
		if a, ok := msg.(answerMsg); ok {
			return a
		}
	}
	require.FailNow(t, "no answer message produced")
	return answerMsg{}
}

func TestModelExitKeywordQuitsWithoutAsking(t *testing.T) {
	asker := &fakeAsker{}
	m := newTestModel(asker)

	updated, cmd := m.Update(component.EditorSubmitMsg{Value: "  SAIR "})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, asker.questions)

	entries := updated.(Model).Transcript()
	require.Len(t, entries, 1)
	assert.Equal(t, renderer.RoleSystem, entries[0].Role)
}

func TestModelBlankInputIsIgnored(t *testing.T) {
	asker := &fakeAsker{}
	m := newTestModel(asker)

	updated, cmd := m.Update(component.EditorSubmitMsg{Value: "   "})
	assert.Nil(t, cmd)
	assert.False(t, updated.(Model).Busy())
	assert.Empty(t, updated.(Model).Transcript())
}

func TestModelAsksAndShowsAnswer(t *testing.T) {
	asker := &fakeAsker{answers: map[string]string{"How much is premium?": "25 dollars per month."}}
	m := newTestModel(asker)

	updated, cmd := m.Update(component.EditorSubmitMsg{Value: " How much is premium? "})
	m = updated.(Model)
	assert.True(t, m.Busy())
	assert.Contains(t, m.View(), "SEARCHING...")

	answer := findAnswer(t, collect(cmd))
	assert.Equal(t, []string{"How much is premium?"}, asker.questions)
	assert.Equal(t, "25 dollars per month.", answer.answer)

	updated, _ = m.Update(answer)
	m = updated.(Model)
	assert.False(t, m.Busy())

	entries := m.Transcript()
	require.Len(t, entries, 2)
	assert.Equal(t, renderer.Entry{Role: renderer.RoleQuestion, Text: "How much is premium?"}, entries[0])
	assert.Equal(t, renderer.RoleAnswer, entries[1].Role)
	assert.Equal(t, "25 dollars per month.", entries[1].Text)
}

func TestModelMarksRefusal(t *testing.T) {
	m := newTestModel(&fakeAsker{})

	updated, _ := m.Update(answerMsg{question: "capital of France?", answer: testRefusal})
	entries := updated.(Model).Transcript()
	require.Len(t, entries, 1)
	assert.Equal(t, renderer.RoleRefusal, entries[0].Role)
}

func TestModelErrorKeepsSessionOpen(t *testing.T) {
	asker := &fakeAsker{err: errors.New("quota exceeded")}
	m := newTestModel(asker)

	updated, cmd := m.Update(component.EditorSubmitMsg{Value: "anything"})
	answer := findAnswer(t, collect(cmd))
	require.Error(t, answer.err)

	updated, _ = updated.(Model).Update(answer)
	m = updated.(Model)
	assert.False(t, m.Busy())
	assert.Contains(t, m.View(), "Failed after")

	entries := m.Transcript()
	require.Len(t, entries, 2)
	assert.Equal(t, renderer.RoleError, entries[1].Role)
	assert.Contains(t, entries[1].Text, "quota exceeded")
}

func TestModelCtrlCQuits(t *testing.T) {
	m := newTestModel(&fakeAsker{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
