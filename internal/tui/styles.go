package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/vedic/internal/pages"
)

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Help     lipgloss.Style
	Key      lipgloss.Style
	KeyDesc  lipgloss.Style

	// Chat speakers.
	System lipgloss.Style
	User   lipgloss.Style
	AI     lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")). // Saffron
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		System: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("109")),
		User: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75")),
		AI: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
	}
}

// Speaker returns the label and style for a chat message kind.
func (s Styles) Speaker(kind pages.MessageKind) (string, lipgloss.Style) {
	switch kind {
	case pages.MessageUser:
		return "You", s.User
	case pages.MessageAI:
		return "Astrologer", s.AI
	case pages.MessageError:
		return "Error", s.Error
	default:
		return "", s.System
	}
}
