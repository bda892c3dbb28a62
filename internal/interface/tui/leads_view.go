package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/models"
)

func newLeadsTable() table.Model {
	columns := []table.Column{
		{Title: "Name", Width: 22},
		{Title: "Email", Width: 28},
		{Title: "Phone", Width: 14},
		{Title: "Status", Width: 12},
		{Title: "Source", Width: 12},
		{Title: "Budget", Width: 24},
		{Title: "Created", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func leadRow(l models.Lead) table.Row {
	return table.Row{
		l.FullName(),
		l.Email,
		export.Phone(l),
		string(l.Status),
		l.Source,
		export.Budget(l),
		export.Date(l.CreatedAt),
	}
}

// refreshTable rebuilds the rows from the controller's current state.
func (m *Model) refreshTable() {
	m.list = m.query.Snapshot()
	rows := make([]table.Row, len(m.list.Leads))
	for i, l := range m.list.Leads {
		rows[i] = leadRow(l)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) selectedLead() (models.Lead, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.list.Leads) {
		return models.Lead{}, false
	}
	return m.list.Leads[i], true
}

func (m Model) updateLeads(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "enter":
			m.searching = false
			m.search.Blur()
			m.query.FlushSearch()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.query.SetSearchText(strings.TrimSpace(m.search.Value()))
		m.refreshTable()
		return m, cmd
	}

	m.notice = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		nm, cmd := m.goDashboard()
		return nm, cmd
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "s":
		m.query.CycleStatus()
		m.refreshTable()
		return m, nil
	case "n", "right":
		m.query.NextPage()
		m.refreshTable()
		return m, nil
	case "p", "left":
		m.query.PrevPage()
		m.refreshTable()
		return m, nil
	case "r":
		return m, fetchLeads(m.ctx, m.query)
	case "a":
		return m.openLeadForm(nil)
	case "enter":
		if l, ok := m.selectedLead(); ok {
			nm, cmd := m.goDetail(l.ID)
			return nm, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) viewLeads() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Leads") + "\n\n")

	search := m.search.View()
	if !m.searching && m.search.Value() == "" {
		search = helpStyle.Render("/ search")
	}
	b.WriteString(search)
	if m.list.SearchPending() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("   Status: ")
	if m.list.Status == models.StatusAll || m.list.Status == "" {
		b.WriteString(subtitleStyle.Render(string(models.StatusAll)))
	} else {
		b.WriteString(statusBadge(m.list.Status))
	}
	b.WriteString("\n\n")

	if len(m.list.Leads) == 0 {
		if m.list.Loading {
			b.WriteString(m.spinner.View() + " Loading leads...\n")
		} else if m.list.Err == "" {
			b.WriteString(subtitleStyle.Render("No leads found. Create one!") + "\n")
		}
	} else {
		b.WriteString(m.table.View() + "\n")
	}
	if m.list.Err != "" {
		b.WriteString(errorStyle.Render(m.list.Err) + "\n")
	}

	pages := fmt.Sprintf("Page %d of %d", m.list.Page, m.list.TotalPages)
	if m.list.HasTotal {
		pages += fmt.Sprintf(" (%d leads)", m.list.Total)
	}
	if m.list.Loading && len(m.list.Leads) > 0 {
		pages += " " + m.spinner.View()
	}
	b.WriteString("\n" + subtitleStyle.Render(pages) + "\n")

	if m.searching {
		b.WriteString(helpStyle.Render("enter: search now | esc: done"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓: select | enter: open | /: search | s: status | n/p: page | a: add lead | r: refresh | esc: dashboard | ?: help"))
	}
	return b.String()
}
