package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/leadquery"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/neilberkman/leadrider/internal/core/session"
)

// Backend is the part of the CRM the screens call directly. Listing goes
// through the leadquery controller instead.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
	LeadDetail(ctx context.Context, id int64) (*crm.LeadDetail, error)
	CreateLead(ctx context.Context, in models.LeadInput) (*models.Lead, error)
	UpdateLead(ctx context.Context, id int64, in models.LeadUpdate) (*models.Lead, error)
	DeleteLead(ctx context.Context, id int64) error
	CreateActivity(ctx context.Context, leadID int64, in models.ActivityInput) (*models.Activity, error)
	DashboardStatistics(ctx context.Context) (*models.DashboardStats, error)
}

type viewMode int

const (
	loginView viewMode = iota
	registerView
	dashboardView
	leadsView
	detailView
	leadFormView
	activityFormView
	helpView
)

// protected screens need an authenticated session.
func (v viewMode) protected() bool {
	return v != loginView && v != registerView
}

type Model struct {
	ctx     context.Context
	backend Backend
	session *session.Manager
	query   *leadquery.Controller
	now     func() time.Time

	mode     viewMode
	prevMode viewMode
	width    int
	height   int
	spinner  spinner.Model
	notice   string

	// login and register
	auth form

	// dashboard
	stats       *models.DashboardStats
	statsErr    string
	statsLoaded bool

	// leads; list is the controller state the table was last built from
	list      leadquery.Snapshot
	table     table.Model
	search    textinput.Model
	searching bool

	// detail
	detailID       int64
	detail         *crm.LeadDetail
	detailErr      string
	detailNotFound bool
	detailLoading  bool
	confirmDelete  bool
	viewport       viewport.Model

	// lead and activity forms
	editor       form
	editingID    int64 // 0 while creating
	activityForm form
}

// Option configures a Model.
type Option func(*Model)

// WithClock replaces time.Now, used for "today" defaults and relative times.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New builds the root model. The caller owns sess and query.
func New(ctx context.Context, backend Backend, sess *session.Manager, query *leadquery.Controller, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtitleStyle

	search := textinput.New()
	search.Placeholder = "Search by name, email or phone"
	search.Prompt = "/ "
	search.CharLimit = 100

	m := Model{
		ctx:      ctx,
		backend:  backend,
		session:  sess,
		query:    query,
		now:      time.Now,
		spinner:  sp,
		search:   search,
		table:    newLeadsTable(),
		viewport: viewport.New(80, 20),
		mode:     loginView,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.auth = newLoginForm("")
	if sess.IsAuthenticated() {
		m.mode = dashboardView
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForSession(m.session),
		waitForQuery(m.query),
		m.spinner.Tick,
	}
	switch {
	case m.session.Loading():
		cmds = append(cmds, hydrate(m.ctx, m.session))
	case m.session.IsAuthenticated():
		cmds = append(cmds, loadDashboard(m.ctx, m.backend))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionChangedMsg:
		nm, cmd := m.applySession()
		return nm, tea.Batch(waitForSession(nm.session), cmd)

	case queryChangedMsg:
		var cmd tea.Cmd
		if m.session.IsAuthenticated() {
			cmd = fetchLeads(m.ctx, m.query)
		}
		m.refreshTable()
		return m, tea.Batch(waitForQuery(m.query), cmd)

	case hydratedMsg:
		if msg.err != nil && !m.session.IsAuthenticated() && !m.session.Loading() {
			m.auth.err = gateway.Message(msg.err, "Your session has expired. Please log in again.")
		}
		return m, nil

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case registerResultMsg:
		return m.handleRegisterResult(msg)

	case leadsFetchedMsg:
		m.refreshTable()
		return m, nil

	case dashboardLoadedMsg:
		m.statsLoaded = true
		if msg.err != nil {
			m.statsErr = gateway.Message(msg.err, "Failed to fetch dashboard statistics")
			return m, nil
		}
		m.stats = msg.stats
		m.statsErr = ""
		return m, nil

	case detailLoadedMsg:
		return m.handleDetailLoaded(msg)

	case leadSavedMsg:
		return m.handleLeadSaved(msg)

	case leadDeletedMsg:
		return m.handleLeadDeleted(msg)

	case activitySavedMsg:
		return m.handleActivitySaved(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.notice = "Clipboard unavailable: " + msg.text
		} else {
			m.notice = "Copied " + msg.text + " to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+x":
		if m.session.IsAuthenticated() {
			// The session change routes back to login.
			_ = m.session.Logout()
			return m, nil
		}
	}

	if m.session.Loading() {
		return m, nil
	}

	if msg.String() == "?" && !m.typing() {
		if m.mode == helpView {
			m.mode = m.prevMode
		} else {
			m.prevMode = m.mode
			m.mode = helpView
		}
		return m, nil
	}

	switch m.mode {
	case loginView, registerView:
		return m.updateAuth(msg)
	case dashboardView:
		return m.updateDashboard(msg)
	case leadsView:
		return m.updateLeads(msg)
	case detailView:
		return m.updateDetail(msg)
	case leadFormView:
		return m.updateLeadForm(msg)
	case activityFormView:
		return m.updateActivityForm(msg)
	case helpView:
		return m.updateHelp(msg)
	}
	return m, nil
}

// typing reports whether keys go to a text input rather than to shortcuts.
func (m Model) typing() bool {
	switch m.mode {
	case loginView, registerView, leadFormView, activityFormView:
		return true
	case leadsView:
		return m.searching
	}
	return false
}

// applySession routes according to the session: protected screens fall back
// to login when the session is gone, and a fresh login lands on the dashboard.
func (m Model) applySession() (Model, tea.Cmd) {
	snap := m.session.Snapshot()
	switch {
	case snap.Loading:
		return m, nil

	case !snap.Authenticated:
		if m.mode.protected() {
			m.resetAuthenticated()
			m.mode = loginView
			m.auth = newLoginForm("")
		}
		return m, nil

	default:
		if !m.mode.protected() {
			m.mode = dashboardView
			m.statsLoaded = false
			return m, loadDashboard(m.ctx, m.backend)
		}
		// A restored token opens on the dashboard before its user is known.
		if m.mode == dashboardView && !m.statsLoaded {
			return m, loadDashboard(m.ctx, m.backend)
		}
		return m, nil
	}
}

// resetAuthenticated drops everything fetched under the previous session.
func (m *Model) resetAuthenticated() {
	m.stats = nil
	m.statsErr = ""
	m.statsLoaded = false
	m.detail = nil
	m.detailID = 0
	m.detailErr = ""
	m.detailNotFound = false
	m.confirmDelete = false
	m.searching = false
	m.notice = ""
	m.query.Reset()
	m.search.SetValue("")
	m.list = leadquery.Snapshot{}
	m.table.SetRows(nil)
}

func (m Model) goDashboard() (Model, tea.Cmd) {
	m.mode = dashboardView
	return m, loadDashboard(m.ctx, m.backend)
}

func (m Model) goLeads() (Model, tea.Cmd) {
	m.mode = leadsView
	m.refreshTable()
	return m, fetchLeads(m.ctx, m.query)
}

func (m Model) goDetail(id int64) (Model, tea.Cmd) {
	m.mode = detailView
	m.confirmDelete = false
	if id != m.detailID {
		m.detail = nil
	}
	m.detailID = id
	m.detailLoading = true
	m.detailErr = ""
	m.detailNotFound = false
	return m, loadDetail(m.ctx, m.backend, id)
}

func (m *Model) resize() {
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-10, 5))
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-6, 5)
	if m.detail != nil {
		m.viewport.SetContent(renderDetail(m.detail, m.width, m.now()))
	}
}

func (m Model) View() string {
	if m.session.Loading() {
		return "\n  " + m.spinner.View() + " Loading your session...\n"
	}

	switch m.mode {
	case loginView, registerView:
		return m.viewAuth()
	case dashboardView:
		return m.frame(m.viewDashboard())
	case leadsView:
		return m.frame(m.viewLeads())
	case detailView:
		return m.frame(m.viewDetail())
	case leadFormView:
		return m.frame(m.editor.view() + helpStyle.Render("tab: next field | ←/→: change option | ctrl+s: save | esc: cancel"))
	case activityFormView:
		return m.frame(m.activityForm.view() + helpStyle.Render("tab: next field | ←/→: change type | ctrl+s: save | esc: cancel"))
	case helpView:
		return m.viewHelp()
	}
	return ""
}

// frame adds the signed-in header and the notice line.
func (m Model) frame(body string) string {
	header := titleStyle.Render("leadrider")
	if u := m.session.User(); u != nil {
		header += subtitleStyle.Render("  " + u.DisplayName())
	}
	out := header + "\n\n" + body
	if m.notice != "" {
		out += "\n" + noticeStyle.Render(m.notice)
	}
	return out
}
