// Package themes holds the lipgloss styles of the check screens.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Headline    lipgloss.Style
	RoundedBox  lipgloss.Style
	Selected    lipgloss.Style
	Option      lipgloss.Style
	Help        lipgloss.Style
	StatusError lipgloss.Style
	Advice      lipgloss.Style
	Primary     lipgloss.Color
	Secondary   lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Error       lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary:   lipgloss.Color("#2F9E72"),
	Secondary: lipgloss.Color("#95E1D3"),
	Muted:     lipgloss.Color("#737373"),
	Border:    lipgloss.Color("#404040"),
	Error:     lipgloss.Color("#ef4444"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#2F9E72")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Headline: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#2F9E72")),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(1, 2),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#2F9E72")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true).
		Padding(0, 1),
	Option: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")).
		Padding(0, 1),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		MarginTop(1),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	Advice: lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("#95E1D3")),
}

// Plain has no colors, for dumb terminals and golden output.
var Plain = Theme{
	Title:       lipgloss.NewStyle().Bold(true).MarginBottom(1),
	Subtitle:    lipgloss.NewStyle(),
	Normal:      lipgloss.NewStyle(),
	Bold:        lipgloss.NewStyle().Bold(true),
	Headline:    lipgloss.NewStyle().Bold(true),
	RoundedBox:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
	Selected:    lipgloss.NewStyle().Reverse(true).Padding(0, 1),
	Option:      lipgloss.NewStyle().Padding(0, 1),
	Help:        lipgloss.NewStyle().MarginTop(1),
	StatusError: lipgloss.NewStyle().Bold(true),
	Advice:      lipgloss.NewStyle().Italic(true),
}
