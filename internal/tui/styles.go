package tui

import "github.com/charmbracelet/lipgloss"

// Color constants.
const (
	primaryColor   = "#0EA5E9" // Sky blue
	secondaryColor = "#10B981" // Green
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

// Style variables for consistent TUI rendering.
var (
	// BoxStyle provides a rounded border box with primary color.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 2)

	// TitleStyle renders titles in primary color with bold.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// DimStyle renders dim/muted text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	// SuccessStyle renders success messages in green.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	// ErrorStyle renders error messages in red.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	// UserStyle renders the user prefix in chat transcripts.
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	// AgentStyle renders the agent prefix in chat transcripts.
	AgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)
)
