package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/neilberkman/leadrider/internal/core/models"
)

// Global styles used across views
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")) // Lighter gray that works better in dark terminals

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Width(18)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("170")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("120")) // Light green

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// Dashboard
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2).
			Width(24)

	cardValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99"))

	// Detail view
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("cyan"))

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))
)

// statusColors mirrors the web app's badge colours.
var statusColors = map[models.LeadStatus]struct{ fg, bg string }{
	models.StatusNew:         {"#1E40AF", "#DBEAFE"},
	models.StatusContacted:   {"#854D0E", "#FEF9C3"},
	models.StatusQualified:   {"#166534", "#DCFCE7"},
	models.StatusNegotiation: {"#6B21A8", "#F3E8FF"},
	models.StatusClosed:      {"#FFFFFF", "#6B7280"},
	models.StatusLost:        {"#991B1B", "#FEE2E2"},
}

func statusBadge(s models.LeadStatus) string {
	c, ok := statusColors[s]
	if !ok {
		c = struct{ fg, bg string }{"#1F2937", "#F3F4F6"}
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.fg)).
		Background(lipgloss.Color(c.bg)).
		Padding(0, 1).
		Render(string(s))
}
