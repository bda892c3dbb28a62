package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/models"
)

const maxBarWidth = 40

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "l", "enter":
		nm, cmd := m.goLeads()
		return nm, cmd
	case "a":
		return m.openLeadForm(nil)
	case "r":
		nm, cmd := m.goDashboard()
		return nm, cmd
	}
	return m, nil
}

func statCard(title string, value int) string {
	return cardStyle.Render(subtitleStyle.Render(title) + "\n" + cardValueStyle.Render(export.StatValue(value)))
}

// statusChart draws one bar per status scaled to the largest count.
func statusChart(counts []models.StatusCount) string {
	if len(counts) == 0 {
		return subtitleStyle.Render("No leads yet.") + "\n"
	}
	top := 0
	for _, c := range counts {
		top = max(top, c.Count)
	}

	var b strings.Builder
	for _, c := range counts {
		width := 0
		if top > 0 {
			width = c.Count * maxBarWidth / top
		}
		if c.Count > 0 && width == 0 {
			width = 1
		}
		label := lipgloss.NewStyle().Width(13).Render(c.Status)
		b.WriteString(label + barStyle.Render(strings.Repeat("█", width)) + fmt.Sprintf(" %d\n", c.Count))
	}
	return b.String()
}

func (m Model) recentActivities(items []models.RecentActivity) string {
	if len(items) == 0 {
		return subtitleStyle.Render("No recent activities.") + "\n"
	}
	var b strings.Builder
	for _, a := range items {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			export.ActivityIcon(a.ActivityType),
			lipgloss.NewStyle().Bold(true).Render(a.Title),
			subtitleStyle.Render("· "+export.RecentLeadName(a)),
		))
		meta := export.Relative(a.ActivityDate, m.now())
		if a.UserName != "" {
			meta += " by " + a.UserName
		}
		b.WriteString("    " + timestampStyle.Render(meta) + "\n")
	}
	return b.String()
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Dashboard") + "\n\n")

	switch {
	case m.stats == nil && m.statsErr != "":
		b.WriteString(errorStyle.Render(m.statsErr) + "\n\n")
		b.WriteString(helpStyle.Render("r: retry | l: leads | q: quit"))
		return b.String()
	case m.stats == nil:
		b.WriteString(m.spinner.View() + " Loading dashboard...\n")
		return b.String()
	}

	s := m.stats
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Total Active Leads", s.TotalLeads),
		statCard("New Leads (This Week)", s.NewLeadsThisWeek),
		statCard("Closed Leads (This Month)", s.ClosedLeadsThisMonth),
		statCard("Total Activities Logged", s.TotalActivities),
	) + "\n\n")

	b.WriteString(sectionStyle.Render("Leads by Status") + "\n")
	b.WriteString(statusChart(s.LeadsByStatus) + "\n")

	b.WriteString(sectionStyle.Render("Recent Activities") + "\n")
	b.WriteString(m.recentActivities(s.RecentActivities))

	if m.statsErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.statsErr) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("l: leads | a: add lead | r: refresh | ctrl+x: log out | ?: help | q: quit"))
	return b.String()
}
