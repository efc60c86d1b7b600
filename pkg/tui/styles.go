package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // primary accent
	coralPink   = lipgloss.Color("#FFCCCB") // secondary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // success
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Width(8)

	focusedLabelStyle = labelStyle.
				Foreground(salmonPink).
				Bold(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	selectedTitleStyle = lipgloss.NewStyle().
				Foreground(salmonPink).
				Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	tagStyle = lipgloss.NewStyle().
			Foreground(coralPink)

	copiedStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true).
			Padding(1, 2)

	statusStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	formBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)

	listBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)

	focusedListBoxStyle = listBoxStyle.
				BorderForeground(salmonPink)
)
