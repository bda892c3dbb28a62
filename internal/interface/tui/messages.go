package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/leadquery"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/neilberkman/leadrider/internal/core/session"
)

// sessionChangedMsg arrives after any login, logout or hydration.
type sessionChangedMsg struct{}

// queryChangedMsg means the leads request descriptor moved and a refetch is due.
type queryChangedMsg struct{}

type hydratedMsg struct {
	err error
}

type loginResultMsg struct {
	token string
	err   error
}

type registerResultMsg struct {
	user *models.User
	err  error
}

type leadsFetchedMsg struct {
	err error
}

type detailLoadedMsg struct {
	id     int64
	detail *crm.LeadDetail
	err    error
}

type dashboardLoadedMsg struct {
	stats *models.DashboardStats
	err   error
}

type leadSavedMsg struct {
	lead    *models.Lead
	created bool
	err     error
}

type leadDeletedMsg struct {
	id  int64
	err error
}

type activitySavedMsg struct {
	leadID int64
	err    error
}

type clipboardMsg struct {
	text string
	err  error
}

func waitForSession(sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		<-sess.Changes()
		return sessionChangedMsg{}
	}
}

func waitForQuery(q *leadquery.Controller) tea.Cmd {
	return func() tea.Msg {
		<-q.Changes()
		return queryChangedMsg{}
	}
}

func hydrate(ctx context.Context, sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		err := sess.Hydrate(ctx)
		if errors.Is(err, session.ErrStaleHydration) {
			return nil
		}
		return hydratedMsg{err: err}
	}
}

func login(ctx context.Context, b Backend, creds models.Credentials) tea.Cmd {
	return func() tea.Msg {
		token, err := b.Login(ctx, creds)
		return loginResultMsg{token: token, err: err}
	}
}

func register(ctx context.Context, b Backend, reg models.Registration) tea.Cmd {
	return func() tea.Msg {
		user, err := b.Register(ctx, reg)
		return registerResultMsg{user: user, err: err}
	}
}

func fetchLeads(ctx context.Context, q *leadquery.Controller) tea.Cmd {
	return func() tea.Msg {
		err := q.Fetch(ctx)
		if errors.Is(err, leadquery.ErrStale) {
			return nil
		}
		return leadsFetchedMsg{err: err}
	}
}

func loadDetail(ctx context.Context, b Backend, id int64) tea.Cmd {
	return func() tea.Msg {
		detail, err := b.LeadDetail(ctx, id)
		return detailLoadedMsg{id: id, detail: detail, err: err}
	}
}

func loadDashboard(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		stats, err := b.DashboardStatistics(ctx)
		return dashboardLoadedMsg{stats: stats, err: err}
	}
}

func createLead(ctx context.Context, b Backend, in models.LeadInput) tea.Cmd {
	return func() tea.Msg {
		lead, err := b.CreateLead(ctx, in)
		return leadSavedMsg{lead: lead, created: true, err: err}
	}
}

func updateLead(ctx context.Context, b Backend, id int64, in models.LeadUpdate) tea.Cmd {
	return func() tea.Msg {
		lead, err := b.UpdateLead(ctx, id, in)
		return leadSavedMsg{lead: lead, err: err}
	}
}

func deleteLead(ctx context.Context, b Backend, id int64) tea.Cmd {
	return func() tea.Msg {
		return leadDeletedMsg{id: id, err: b.DeleteLead(ctx, id)}
	}
}

func createActivity(ctx context.Context, b Backend, leadID int64, in models.ActivityInput) tea.Cmd {
	return func() tea.Msg {
		_, err := b.CreateActivity(ctx, leadID, in)
		return activitySavedMsg{leadID: leadID, err: err}
	}
}
