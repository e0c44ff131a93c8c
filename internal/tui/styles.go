package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/redlog/internal/delivery"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)
)

// RenderStatus colours a status line by what happened.
func RenderStatus(s delivery.Status) string {
	switch s.Kind {
	case delivery.StatusDelivered, delivery.StatusCleared:
		return successStyle.Render(s.Message)
	case delivery.StatusRejected, delivery.StatusFailed:
		return errorStyle.Render(s.Message)
	case delivery.StatusQueued, delivery.StatusOffline:
		return warningStyle.Render(s.Message)
	case delivery.StatusSending, delivery.StatusRetrying:
		return highlightStyle.Render(s.Message)
	default:
		return dimStyle.Render(s.Message)
	}
}
