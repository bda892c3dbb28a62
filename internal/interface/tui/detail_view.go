package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/export"
	"github.com/neilberkman/leadrider/internal/core/gateway"
)

const minWrapWidth = 40

// renderDetail lays out the lead card followed by its timeline.
func renderDetail(d *crm.LeadDetail, width int, now time.Time) string {
	if width < minWrapWidth {
		width = 80
	}
	l := d.Lead

	var b strings.Builder
	b.WriteString(titleStyle.Render(l.FullName()) + "  " + statusBadge(l.Status) + "\n")
	if !l.IsActive {
		b.WriteString(errorStyle.Render("This lead has been deleted.") + "\n")
	}
	b.WriteString("\n")

	rows := [][2]string{
		{"Email", l.Email},
		{"Phone", export.Phone(l)},
		{"Status", string(l.Status)},
		{"Source", l.Source},
		{"Budget", export.Budget(l)},
		{"Created", export.Date(l.CreatedAt)},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r[0]) + r[1] + "\n")
	}
	b.WriteString("\n" + labelStyle.Render("Property interest") + "\n")
	b.WriteString(wordwrap.String(export.PropertyInterest(l), width-2) + "\n")

	b.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("Activity timeline (%d)", len(d.Activities))) + "\n")
	b.WriteString(strings.Repeat("─", min(width, 80)) + "\n")

	if len(d.Activities) == 0 {
		b.WriteString(subtitleStyle.Render("No activities yet.") + "\n")
		return b.String()
	}

	for _, a := range d.Activities {
		header := export.ActivityIcon(a.ActivityType) + "  " + lipgloss.NewStyle().Bold(true).Render(a.Title)
		when := export.Date(a.ActivityDate)
		if rel := export.Relative(a.CreatedAt, now); rel != export.NotAvailable {
			when += " (logged " + rel + ")"
		}
		b.WriteString(header + "  " + timestampStyle.Render(when) + "\n")

		if a.Notes != nil && *a.Notes != "" {
			b.WriteString(wordwrap.String(*a.Notes, width-4) + "\n")
		}

		meta := "Logged by " + a.UserName
		if a.UserName == "" {
			meta = "Logged by unknown user"
		}
		if dur := export.Duration(a); dur != "" {
			meta += " · " + dur
		}
		b.WriteString(subtitleStyle.Render(meta) + "\n\n")
	}
	return b.String()
}

func (m Model) handleDetailLoaded(msg detailLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.detailID {
		return m, nil
	}
	m.detailLoading = false

	if msg.err != nil {
		if errors.Is(msg.err, crm.ErrLeadNotFound) {
			m.detailNotFound = true
			m.detail = nil
			return m, nil
		}
		m.detailErr = gateway.Message(msg.err, "Failed to fetch lead data")
		return m, nil
	}

	fresh := m.detail == nil
	m.detail = msg.detail
	m.detailErr = ""
	m.detailNotFound = false
	m.viewport.SetContent(renderDetail(m.detail, m.viewport.Width, m.now()))
	if fresh {
		m.viewport.GotoTop()
	}
	return m, nil
}

func (m Model) handleLeadDeleted(msg leadDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.confirmDelete = false
		m.detailErr = gateway.Message(msg.err, "Failed to delete lead")
		return m, nil
	}
	m.detail = nil
	m.detailID = 0
	m.confirmDelete = false
	m.notice = "Lead deleted"
	nm, cmd := m.goDashboard()
	return nm, cmd
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: clipboard.WriteAll(text)}
	}
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			return m, deleteLead(m.ctx, m.backend, m.detailID)
		case "n", "N", "esc":
			m.confirmDelete = false
		}
		return m, nil
	}

	m.notice = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		nm, cmd := m.goLeads()
		return nm, cmd
	case "r":
		nm, cmd := m.goDetail(m.detailID)
		return nm, cmd
	}

	if m.detail == nil {
		return m, nil
	}

	switch msg.String() {
	case "e":
		return m.openLeadForm(&m.detail.Lead)
	case "d":
		m.confirmDelete = true
		return m, nil
	case "a":
		return m.openActivityForm()
	case "c":
		return m, copyToClipboard(m.detail.Lead.Email)
	case "g":
		m.viewport.GotoTop()
		return m, nil
	case "G":
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) viewDetail() string {
	switch {
	case m.detailNotFound:
		return errorStyle.Render("Lead not found.") + "\n\n" + helpStyle.Render("esc: back to leads")
	case m.detail == nil && m.detailErr != "":
		return errorStyle.Render(m.detailErr) + "\n\n" + helpStyle.Render("r: retry | esc: back to leads")
	case m.detail == nil:
		return m.spinner.View() + " Loading lead..."
	}

	content := m.viewport.View()
	if m.detailErr != "" {
		content += "\n" + errorStyle.Render(m.detailErr)
	}

	if m.confirmDelete {
		content += "\n\n" + errorStyle.Render("Delete "+m.detail.Lead.FullName()+"?") + "\n" +
			subtitleStyle.Render("The lead is deactivated and hidden from listings. Its history is kept.") + "\n" +
			helpStyle.Render("y: delete | n: cancel")
		return content
	}

	footer := fmt.Sprintf("\n%3.f%%", m.viewport.ScrollPercent()*100)
	if m.detailLoading {
		footer += " " + m.spinner.View()
	}
	footer += "\n" + helpStyle.Render("e: edit | d: delete | a: add activity | c: copy email | r: refresh | j/k: scroll | esc: back | q: quit")
	return content + footer
}
