package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#00D7FF")
	mutedColor     = lipgloss.Color("#666666")
	errorColor     = lipgloss.Color("#FF4B4B")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	nameStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	typeStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	invalidStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Italic(true)
)

// paint renders s with style unless colors are disabled.
func paint(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}
