package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func panelStyle(focused bool) lipgloss.Style {
	color := lipgloss.Color("8")
	if focused {
		color = lipgloss.Color("12")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
}

func panelString(inner string, focused bool) string {
	return panelStyle(focused).Render(strings.TrimRight(inner, "\n"))
}

// usageBar draws a percentage as a fixed width bar.
func usageBar(percent, width int) string {
	if width <= 0 {
		width = 20
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	style := successStyle
	if percent >= 80 {
		style = errorStyle
	} else if percent >= 60 {
		style = pendingStyle
	}
	return "[" + style.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled) + "]"
}
