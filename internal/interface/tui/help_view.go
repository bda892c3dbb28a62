package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = m.prevMode
		return m, nil
	}

	return m, nil
}

func (m Model) viewHelp() string {
	help := `
leadrider - Help
════════════════

DASHBOARD
─────────
  l, Enter     Open the leads list
  a            Add a lead
  r            Refresh statistics
  q            Quit

LEADS LIST
──────────
  ↑/↓, j/k     Select a lead
  Enter        Open lead details
  /            Search by name, email or phone (sent after a short pause)
  s            Cycle the status filter
  n/p          Next / previous page
  a            Add a lead
  esc          Back to dashboard

LEAD DETAIL
───────────
  e            Edit lead
  d            Delete lead (hidden from listings, history kept)
  a            Log an activity
  c            Copy email to clipboard
  j/k          Scroll timeline
  g/G          Jump to top/bottom
  esc          Back to leads list

FORMS
─────
  tab/↓        Next field
  shift+tab/↑  Previous field
  ←/→          Change option
  ctrl+s       Save
  esc          Cancel

ANYWHERE
────────
  ctrl+x       Log out
  ctrl+c       Quit

Press ? or esc to return
`

	return helpStyle.Render(help)
}
