package tui

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/neilberkman/leadrider/internal/core/crm"
	"github.com/neilberkman/leadrider/internal/core/gateway"
	"github.com/neilberkman/leadrider/internal/core/leadquery"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/neilberkman/leadrider/internal/core/session"
	"github.com/neilberkman/leadrider/internal/core/tokenstore"
	"github.com/neilberkman/leadrider/internal/fakecrm"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

type fakeBackend struct {
	mu         sync.Mutex
	user       models.User
	token      string
	detail     *crm.LeadDetail
	leads      []models.Lead
	logins     int
	deleted    []int64
	activities []models.ActivityInput
	updates    []models.LeadUpdate
}

func newFakeBackend() *fakeBackend {
	interest := "3-bed house near the park"
	minBudget, maxBudget := 350000.0, 500000.0
	notes := "Wants a garden"
	return &fakeBackend{
		user:  models.User{ID: 1, Username: "demo", FirstName: "Ada", LastName: "Agent"},
		token: "token-1",
		detail: &crm.LeadDetail{
			Lead: models.Lead{
				ID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
				Status: models.StatusNew, Source: "website", IsActive: true,
				BudgetMin: &minBudget, BudgetMax: &maxBudget, PropertyInterest: &interest,
			},
			Activities: []models.Activity{
				{ID: 1, LeadID: 7, ActivityType: models.ActivityNote, Title: "First contact", Notes: &notes, UserName: "Ada Agent"},
			},
		},
	}
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (*models.User, error) {
	u := f.user
	return &u, nil
}

func (f *fakeBackend) ListLeads(ctx context.Context, q models.LeadQuery) (*models.LeadPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.LeadPage{Leads: f.leads, Total: len(f.leads), HasTotal: true}, nil
}

func (f *fakeBackend) Login(ctx context.Context, creds models.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if creds.Password != "demo1234" {
		return "", fmt.Errorf("Incorrect username or password")
	}
	return f.token, nil
}

func (f *fakeBackend) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	return &models.User{Username: reg.Username}, nil
}

func (f *fakeBackend) LeadDetail(ctx context.Context, id int64) (*crm.LeadDetail, error) {
	if f.detail == nil || f.detail.Lead.ID != id {
		return nil, fmt.Errorf("lead %d: %w", id, crm.ErrLeadNotFound)
	}
	return f.detail, nil
}

func (f *fakeBackend) CreateLead(ctx context.Context, in models.LeadInput) (*models.Lead, error) {
	return &models.Lead{ID: 99, FirstName: in.FirstName, LastName: in.LastName}, nil
}

func (f *fakeBackend) UpdateLead(ctx context.Context, id int64, in models.LeadUpdate) (*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	return &models.Lead{ID: id}, nil
}

func (f *fakeBackend) DeleteLead(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) CreateActivity(ctx context.Context, leadID int64, in models.ActivityInput) (*models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, in)
	return &models.Activity{LeadID: leadID, Title: in.Title}, nil
}

func (f *fakeBackend) DashboardStatistics(ctx context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{
		TotalLeads: 6,
		LeadsByStatus: []models.StatusCount{
			{Status: "new", Count: 4},
			{Status: "closed", Count: 2},
		},
	}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestModel builds a model; a non-empty token starts it signed in.
func newTestModel(t *testing.T, token string) (Model, *fakeBackend) {
	t.Helper()
	m, fb := newRestoredModel(t, token)
	if token != "" {
		require.NoError(t, m.session.Hydrate(context.Background()))
	}
	return m, fb
}

// newRestoredModel builds a model the way startup does: a saved token is
// restored but its user has not been fetched yet.
func newRestoredModel(t *testing.T, token string) (Model, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend()
	sess, err := session.NewManager(tokenstore.NewMemory(token), fb, session.WithLogger(quietLogger()))
	require.NoError(t, err)
	q := leadquery.NewController(fb, leadquery.WithDebounce(time.Hour))
	t.Cleanup(q.Close)

	return newSizedModel(t, fb, sess, q), fb
}

func newSizedModel(t *testing.T, b Backend, sess *session.Manager, q *leadquery.Controller) Model {
	t.Helper()
	m := New(context.Background(), b, sess, q, WithClock(func() time.Time { return fixedNow }))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	return update(t, m, msg)
}

// run executes cmd and feeds its message back, the way the program loop would.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.NotNil(t, msg)
	return update(t, m, msg)
}

func setField(f *form, key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
		}
	}
}

func TestAnonymousStartsOnLogin(t *testing.T) {
	m, _ := newTestModel(t, "")
	assert.Equal(t, loginView, m.mode)
	assert.Contains(t, m.View(), "Sign in")
}

func TestLoginValidationStopsBeforeBackend(t *testing.T) {
	m, fb := newTestModel(t, "")
	setField(&m.auth, "username", "demo")
	setField(&m.auth, "password", "123")

	m, cmd := press(t, m, "ctrl+s")
	assert.Nil(t, cmd)
	require.NotNil(t, m.auth.fieldErrs)
	assert.Equal(t, "Password must be at least 6 characters", m.auth.fieldErrs.For("password"))
	assert.Equal(t, 0, fb.logins)
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	m, _ := newTestModel(t, "")
	setField(&m.auth, "username", "demo")
	setField(&m.auth, "password", "wrong-password")

	m, cmd := press(t, m, "ctrl+s")
	m, _ = run(t, m, cmd)
	assert.Equal(t, loginView, m.mode)
	assert.Equal(t, "Incorrect username or password", m.auth.err)
	assert.False(t, m.auth.submitting)
}

func TestLoginHydratesAndOpensDashboard(t *testing.T) {
	m, _ := newTestModel(t, "")
	setField(&m.auth, "username", "demo")
	setField(&m.auth, "password", "demo1234")

	m, cmd := press(t, m, "ctrl+s")
	m, cmd = run(t, m, cmd) // login result, returns hydration
	assert.True(t, m.session.Loading())
	assert.Contains(t, m.View(), "Loading your session")

	m, _ = run(t, m, cmd) // hydrated
	m, _ = update(t, m, sessionChangedMsg{})
	assert.Equal(t, dashboardView, m.mode)
	assert.True(t, m.session.IsAuthenticated())
}

func TestLogoutRoutesToLogin(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	require.Equal(t, dashboardView, m.mode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	m, _ = update(t, m, sessionChangedMsg{})
	assert.Equal(t, loginView, m.mode)
	assert.Nil(t, m.stats)
	assert.False(t, m.session.IsAuthenticated())
}

func TestRestoredTokenLoadsDashboardOnceHydrated(t *testing.T) {
	m, _ := newRestoredModel(t, "token-1")
	require.True(t, m.session.Loading())
	require.Equal(t, dashboardView, m.mode)
	require.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Loading your session")

	m, _ = run(t, m, hydrate(m.ctx, m.session))
	require.Equal(t, session.Authenticated, m.session.State())

	// what the sessionChangedMsg handler does besides re-arming the listener
	m, cmd := m.applySession()
	require.NotNil(t, cmd, "dashboard load not scheduled after hydration")
	m, _ = run(t, m, cmd)

	assert.True(t, m.statsLoaded)
	out := m.View()
	assert.NotContains(t, out, "Loading dashboard")
	assert.Contains(t, out, "Total Active Leads")
	assert.Contains(t, out, "Ada Agent")
}

func TestRejectedTokenMidSessionRoutesToLogin(t *testing.T) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	backend := fakecrm.New(fakecrm.WithBcryptCost(bcrypt.MinCost), fakecrm.WithLogger(quiet))
	require.NoError(t, backend.Seed())
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	gw, err := gateway.New(ts.URL, gateway.WithLogger(quiet))
	require.NoError(t, err)
	client := crm.New(gw)
	sess, err := session.NewManager(tokenstore.NewMemory(""), client, session.WithLogger(quiet))
	require.NoError(t, err)
	gw.SetCredentials(sess)

	ctx := context.Background()
	token, err := client.Login(ctx, models.Credentials{Username: fakecrm.DemoUsername, Password: fakecrm.DemoPassword})
	require.NoError(t, err)
	require.NoError(t, sess.Login(token))
	require.NoError(t, sess.Hydrate(ctx))

	q := leadquery.NewController(client, leadquery.WithDebounce(time.Hour))
	t.Cleanup(q.Close)
	m := newSizedModel(t, client, sess, q)

	m, cmd := press(t, m, "l")
	m, _ = run(t, m, cmd)
	require.NotEmpty(t, m.table.Rows())

	backend.Revoke(token)
	m, cmd = press(t, m, "esc")
	m, _ = run(t, m, cmd)
	assert.False(t, sess.IsAuthenticated(), "401 on the dashboard fetch did not end the session")

	m, _ = update(t, m, sessionChangedMsg{})
	assert.Equal(t, loginView, m.mode)
	assert.Nil(t, m.stats)
	assert.Empty(t, m.table.Rows())
	assert.Empty(t, q.Snapshot().Leads, "previous session's rows survived logout")
}

func TestRegisterReturnsToLoginWithNotice(t *testing.T) {
	m, _ := newTestModel(t, "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, registerView, m.mode)

	setField(&m.auth, "username", "newagent")
	setField(&m.auth, "email", "new@example.com")
	setField(&m.auth, "first_name", "New")
	setField(&m.auth, "last_name", "Agent")
	setField(&m.auth, "password", "secret99")

	m, cmd := press(t, m, "ctrl+s")
	m, _ = run(t, m, cmd)
	assert.Equal(t, loginView, m.mode)
	assert.Equal(t, "newagent", m.auth.value("username"))
	assert.Equal(t, "Registration successful! Please log in.", m.notice)
}

func TestDashboardRendersCards(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m, _ = run(t, m, loadDashboard(m.ctx, m.backend))

	out := m.View()
	assert.Contains(t, out, "Total Active Leads")
	assert.Contains(t, out, "06")
	assert.Contains(t, out, "00")
	assert.Contains(t, out, "No recent activities.")
}

func TestLeadsEmptyState(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m, cmd := press(t, m, "l")
	require.Equal(t, leadsView, m.mode)
	m, _ = run(t, m, cmd)

	assert.Contains(t, m.View(), "No leads found. Create one!")
}

func TestLeadsTableOpensDetail(t *testing.T) {
	m, fb := newTestModel(t, "token-1")
	fb.leads = []models.Lead{fb.detail.Lead}

	m, cmd := press(t, m, "l")
	m, _ = run(t, m, cmd)
	require.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "Jane Doe", m.table.Rows()[0][0])

	m, cmd = press(t, m, "enter")
	require.Equal(t, detailView, m.mode)
	m, _ = run(t, m, cmd)
	require.NotNil(t, m.detail)

	out := m.View()
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "$350,000 - $500,000")
	assert.Contains(t, out, "Logged by Ada Agent")
}

func TestStatusFilterResetsToFirstPage(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m, cmd := press(t, m, "l")
	m, _ = run(t, m, cmd)

	m, _ = press(t, m, "s")
	assert.Equal(t, models.StatusNew, m.list.Status)
	assert.Equal(t, 1, m.list.Page)
}

func openDetail(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := m.goDetail(7)
	m, _ = run(t, m, cmd)
	require.NotNil(t, m.detail)
	return m
}

func TestDetailNotFound(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m, cmd := m.goDetail(404)
	m, _ = run(t, m, cmd)

	assert.True(t, m.detailNotFound)
	assert.Contains(t, m.View(), "Lead not found.")
}

func TestDetailErrorKeepsLastLead(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m = openDetail(t, m)

	m, _ = update(t, m, detailLoadedMsg{id: 7, err: fmt.Errorf("connection refused")})
	require.NotNil(t, m.detail)
	assert.Equal(t, "connection refused", m.detailErr)
}

func TestDeleteConfirmsThenReturnsToDashboard(t *testing.T) {
	m, fb := newTestModel(t, "token-1")
	m = openDetail(t, m)

	m, cmd := press(t, m, "d")
	assert.Nil(t, cmd)
	assert.True(t, m.confirmDelete)
	assert.Contains(t, m.View(), "hidden from listings")

	m, cmd = press(t, m, "y")
	m, _ = run(t, m, cmd)
	assert.Equal(t, dashboardView, m.mode)
	assert.Equal(t, "Lead deleted", m.notice)
	assert.Equal(t, []int64{7}, fb.deleted)
}

func TestDeleteCancel(t *testing.T) {
	m, fb := newTestModel(t, "token-1")
	m = openDetail(t, m)

	m, _ = press(t, m, "d")
	m, _ = press(t, m, "n")
	assert.False(t, m.confirmDelete)
	assert.Equal(t, detailView, m.mode)
	assert.Empty(t, fb.deleted)
}

func TestEditFormIsPrefilled(t *testing.T) {
	m, fb := newTestModel(t, "token-1")
	m = openDetail(t, m)

	m, _ = press(t, m, "e")
	require.Equal(t, leadFormView, m.mode)

	got := map[string]string{}
	for _, f := range m.editor.fields {
		got[f.key] = f.input.Value()
	}
	want := map[string]string{
		"first_name":        "Jane",
		"last_name":         "Doe",
		"email":             "jane@example.com",
		"phone":             "",
		"budget_min":        "350000",
		"budget_max":        "500000",
		"property_interest": "3-bed house near the park",
		"status":            "new",
		"source":            "website",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("prefill mismatch (-want +got):\n%s", diff)
	}

	setField(&m.editor, "source", "referral")
	m, cmd := press(t, m, "ctrl+s")
	m, _ = run(t, m, cmd)
	require.Len(t, fb.updates, 1)
	assert.Equal(t, "referral", fb.updates[0].Source)
	assert.Equal(t, detailView, m.mode)
	assert.Equal(t, "Lead updated", m.notice)
}

func TestLeadFormBudgetMustBeNumber(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m, _ = press(t, m, "a")
	require.Equal(t, leadFormView, m.mode)

	setField(&m.editor, "first_name", "Wei")
	setField(&m.editor, "last_name", "Chen")
	setField(&m.editor, "email", "wei@example.com")
	setField(&m.editor, "budget_min", "lots")

	m, cmd := press(t, m, "ctrl+s")
	assert.Nil(t, cmd)
	require.NotNil(t, m.editor.fieldErrs)
	assert.Equal(t, "Budget min must be a number", m.editor.fieldErrs.For("budget_min"))
}

func TestActivityFormDefaultsAndDropsDuration(t *testing.T) {
	m, fb := newTestModel(t, "token-1")
	m = openDetail(t, m)

	m, _ = press(t, m, "a")
	require.Equal(t, activityFormView, m.mode)
	assert.Equal(t, "call", m.activityForm.value("activity_type"))
	assert.Equal(t, "2026-10-16", m.activityForm.value("activity_date"))

	m, _ = press(t, m, "right") // call -> email
	setField(&m.activityForm, "title", "Sent listings")
	setField(&m.activityForm, "duration", "15")

	m, cmd := press(t, m, "ctrl+s")
	m, _ = run(t, m, cmd)

	require.Len(t, fb.activities, 1)
	got := fb.activities[0]
	assert.Equal(t, models.ActivityEmail, got.ActivityType)
	assert.Equal(t, "2026-10-16", got.ActivityDate)
	assert.Nil(t, got.Duration)
	assert.Equal(t, detailView, m.mode)
	assert.Equal(t, "Activity added", m.notice)
}

func TestActivityFormRejectsUnknownDate(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m = openDetail(t, m)
	m, _ = press(t, m, "a")

	setField(&m.activityForm, "title", "Call back")
	setField(&m.activityForm, "activity_date", "qwerty")
	m, cmd := press(t, m, "ctrl+s")
	assert.Nil(t, cmd)
	assert.Equal(t, "Date not recognised", m.activityForm.fieldErrs.For("activity_date"))
}

func TestHelpTogglesBack(t *testing.T) {
	m, _ := newTestModel(t, "token-1")
	m, _ = press(t, m, "?")
	assert.Equal(t, helpView, m.mode)
	m, _ = press(t, m, "?")
	assert.Equal(t, dashboardView, m.mode)
}

func TestStatusChart(t *testing.T) {
	out := statusChart([]models.StatusCount{
		{Status: "new", Count: 4},
		{Status: "closed", Count: 1},
		{Status: "lost", Count: 0},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, maxBarWidth, strings.Count(lines[0], "█"))
	assert.Equal(t, maxBarWidth/4, strings.Count(lines[1], "█"))
	assert.Equal(t, 0, strings.Count(lines[2], "█"))

	assert.Contains(t, statusChart(nil), "No leads yet.")
}
