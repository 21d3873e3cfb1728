package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorError     = lipgloss.Color("196")
	colorDim       = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorSecondary)

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	enabledStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	commandLineStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Padding(0, 1)
)
