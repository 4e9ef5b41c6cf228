package cli

import "github.com/charmbracelet/lipgloss"

// bannerStyle frames the daemon start-up banner.
var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#F5F5F5")).
	Background(lipgloss.Color("#2E6F95")).
	Padding(1, 4).
	MarginBottom(1).
	Align(lipgloss.Left).
	Border(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#2E6F95"))
