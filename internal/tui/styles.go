package tui

import "github.com/charmbracelet/lipgloss"

// Colors - using a professional dark theme
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	accentColor  = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	textColor    = lipgloss.Color("#F3F4F6") // Light gray
	bgColor      = lipgloss.Color("#1F2937") // Dark gray
	rowColor     = lipgloss.Color("#374151")
)

// Pane border titles
var (
	borderTitleStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	focusedBorderTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)
)

// List item styles
var (
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(textColor)

	dimItemStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// Table styles
var (
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(mutedColor)

	tableCellStyle = lipgloss.NewStyle().
			Foreground(textColor).
			PaddingRight(1)

	tableSelectedRowStyle = lipgloss.NewStyle().
				Background(rowColor).
				Foreground(textColor)
)

// Status bar styles
var (
	statusBarStyle = lipgloss.NewStyle().
			Background(bgColor).
			Foreground(textColor).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	statusValueStyle = lipgloss.NewStyle().
				Foreground(textColor)
)

var pageIndicatorStyle = lipgloss.NewStyle().
	Foreground(textColor).
	Bold(true)

var errorStyle = lipgloss.NewStyle().
	Foreground(errorColor).
	Bold(true)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(primaryColor)
