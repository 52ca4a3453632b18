// Package themes holds the color schemes of the terminal dashboard.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Box           lipgloss.Style
	FocusedBox    lipgloss.Style
	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	ProgressFull  lipgloss.Style
	ProgressEmpty lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#2e8b57"),
	Success: lipgloss.Color("#10b981"),
	Warning: lipgloss.Color("#f59e0b"),
	Error:   lipgloss.Color("#ef4444"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#2e8b57")).
		Padding(0, 1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	FocusedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#2e8b57")).
		Padding(0, 1),
	TableHeader: lipgloss.NewStyle().
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#404040")),
	TableSelected: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#2e8b57")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")),
	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	ProgressFull: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2e8b57")),
	ProgressEmpty: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#404040")),
}

// Plain renders without colors or borders, for dumb terminals and tests.
var Plain = Theme{
	Title:         lipgloss.NewStyle().Bold(true),
	Subtitle:      lipgloss.NewStyle(),
	Normal:        lipgloss.NewStyle(),
	Bold:          lipgloss.NewStyle().Bold(true),
	Box:           lipgloss.NewStyle(),
	FocusedBox:    lipgloss.NewStyle(),
	TableHeader:   lipgloss.NewStyle().Bold(true),
	TableSelected: lipgloss.NewStyle().Reverse(true),
	StatusError:   lipgloss.NewStyle(),
	StatusWarning: lipgloss.NewStyle(),
	StatusSuccess: lipgloss.NewStyle(),
	ProgressFull:  lipgloss.NewStyle(),
	ProgressEmpty: lipgloss.NewStyle(),
}
