package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusBar renders the project, naming strategy and last job result.
type StatusBar struct {
	workspace string
	project   string
	naming    string
	surface   string
	running   bool
	failed    bool
	spin      string
	last      string
}

func (s StatusBar) View(width int) string {
	left := fmt.Sprintf("%s | naming %s", truncate(s.workspace, 30), s.naming)
	if s.surface != "" {
		left += " | " + s.surface
	}
	right := s.last
	switch {
	case s.running:
		right = s.spin + " running"
	case s.failed:
		right = errorStyle.Render(truncate(s.last, 40))
	default:
		right = truncate(right, 40)
	}
	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}
	return statusStyle.Render(left + strings.Repeat(" ", padding) + right)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:1]
	}
	return "…" + s[len(s)-n+1:]
}
