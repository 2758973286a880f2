package renderer

import (
	"github.com/charmbracelet/lipgloss"
)

// TranscriptStyles holds the lipgloss styles for each transcript role
type TranscriptStyles struct {
	Question lipgloss.Style
	Answer   lipgloss.Style
	Refusal  lipgloss.Style
	Error    lipgloss.Style
	System   lipgloss.Style
	Sources  lipgloss.Style
	Indent   lipgloss.Style
}

// DefaultTranscriptStyles returns the default palette
func DefaultTranscriptStyles() *TranscriptStyles {
	return &TranscriptStyles{
		Question: lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		Answer:   lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7")).Bold(true),
		Refusal:  lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Italic(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		System:   lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Italic(true),
		Sources:  lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).Faint(true),
		Indent:   lipgloss.NewStyle().PaddingLeft(2),
	}
}
