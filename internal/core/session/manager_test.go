package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/neilberkman/leadrider/internal/core/tokenstore"
	"github.com/sirupsen/logrus"
)

// scriptedUsers answers CurrentUser from a queue; each call blocks until released
// when gate is non-nil.
type scriptedUsers struct {
	mu      sync.Mutex
	calls   int
	results []result
	gate    chan struct{}
	started chan struct{}
}

type result struct {
	user *models.User
	err  error
}

func (s *scriptedUsers) CurrentUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	s.calls++
	r := s.results[0]
	s.results = s.results[1:]
	gate := s.gate
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return r.user, r.err
}

func (s *scriptedUsers) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newManager(t *testing.T, store tokenstore.Store, users UserFetcher) *Manager {
	t.Helper()
	m, err := NewManager(store, users, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestStartsAnonymousWithEmptyStore(t *testing.T) {
	m := newManager(t, tokenstore.NewMemory(""), &scriptedUsers{})

	if m.State() != Anonymous || m.IsAuthenticated() || m.Loading() {
		t.Errorf("snapshot = %+v, want anonymous and not loading", m.Snapshot())
	}
	if err := m.Hydrate(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Hydrate() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestRestoredTokenIsLoadingUntilHydrated(t *testing.T) {
	users := &scriptedUsers{results: []result{{user: &models.User{ID: 1, Username: "jane"}}}}
	m := newManager(t, tokenstore.NewMemory("persisted"), users)

	snap := m.Snapshot()
	if snap.State != Hydrating || !snap.Loading || !snap.Authenticated || snap.User != nil {
		t.Fatalf("restored snapshot = %+v", snap)
	}

	if err := m.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	snap = m.Snapshot()
	if snap.State != Authenticated || snap.Loading || snap.User == nil || snap.User.Username != "jane" {
		t.Errorf("hydrated snapshot = %+v", snap)
	}
}

func TestHydrationFailureClearsSession(t *testing.T) {
	store := tokenstore.NewMemory("")
	users := &scriptedUsers{results: []result{{err: errors.New("401 unauthorized")}}}
	m := newManager(t, store, users)

	if err := m.Login("bad-token"); err != nil {
		t.Fatal(err)
	}
	if stored, _ := store.Load(); stored != "bad-token" {
		t.Fatalf("token not persisted on login, store = %q", stored)
	}

	if err := m.Hydrate(context.Background()); err == nil {
		t.Fatal("Hydrate() error = nil, want failure")
	}

	if m.IsAuthenticated() || m.User() != nil || m.Loading() {
		t.Errorf("snapshot after failed hydration = %+v", m.Snapshot())
	}
	if stored, _ := store.Load(); stored != "" {
		t.Errorf("store still holds %q after failed hydration", stored)
	}
}

func TestLogoutIsImmediateAndOffline(t *testing.T) {
	store := tokenstore.NewMemory("")
	users := &scriptedUsers{results: []result{{user: &models.User{Username: "jane"}}}}
	m := newManager(t, store, users)

	_ = m.Login("tok")
	if err := m.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if m.State() != Anonymous || m.User() != nil {
		t.Errorf("snapshot after logout = %+v", m.Snapshot())
	}
	if stored, _ := store.Load(); stored != "" {
		t.Errorf("store still holds %q after logout", stored)
	}
	if users.callCount() != 1 {
		t.Errorf("logout issued requests: calls = %d", users.callCount())
	}
}

func TestOneRequestPerHydratingTransition(t *testing.T) {
	users := &scriptedUsers{results: []result{
		{user: &models.User{Username: "jane"}},
		{user: &models.User{Username: "jane"}},
	}}
	m := newManager(t, tokenstore.NewMemory(""), users)

	_ = m.Login("tok")
	_ = m.Hydrate(context.Background())
	_ = m.Hydrate(context.Background())
	if users.callCount() != 1 {
		t.Fatalf("calls after double Hydrate = %d, want 1", users.callCount())
	}

	_ = m.Login("tok-2")
	_ = m.Hydrate(context.Background())
	if users.callCount() != 2 {
		t.Errorf("calls after re-login = %d, want 2", users.callCount())
	}
}

func TestStaleHydrationIsDiscarded(t *testing.T) {
	users := &scriptedUsers{
		results: []result{
			{user: &models.User{Username: "old"}},
			{user: &models.User{Username: "new"}},
		},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	m := newManager(t, tokenstore.NewMemory(""), users)

	_ = m.Login("first")
	firstDone := make(chan error, 1)
	go func() { firstDone <- m.Hydrate(context.Background()) }()
	<-users.started

	// A newer login lands while the first profile fetch is in flight.
	_ = m.Login("second")
	secondDone := make(chan error, 1)
	go func() { secondDone <- m.Hydrate(context.Background()) }()
	<-users.started

	users.gate <- struct{}{}
	if err := <-firstDone; !errors.Is(err, ErrStaleHydration) {
		t.Fatalf("first Hydrate() error = %v, want ErrStaleHydration", err)
	}
	if m.User() != nil {
		t.Fatalf("stale profile applied: %+v", m.User())
	}

	users.gate <- struct{}{}
	if err := <-secondDone; err != nil {
		t.Fatalf("second Hydrate() error = %v", err)
	}
	if u := m.User(); u == nil || u.Username != "new" {
		t.Errorf("User() = %+v, want new", u)
	}
	if m.Token() != "second" {
		t.Errorf("Token() = %q, want second", m.Token())
	}
}

func TestLogoutDuringHydrationWins(t *testing.T) {
	users := &scriptedUsers{
		results: []result{{user: &models.User{Username: "jane"}}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	m := newManager(t, tokenstore.NewMemory(""), users)

	_ = m.Login("tok")
	done := make(chan error, 1)
	go func() { done <- m.Hydrate(context.Background()) }()
	<-users.started

	_ = m.Logout()
	users.gate <- struct{}{}

	if err := <-done; !errors.Is(err, ErrStaleHydration) {
		t.Errorf("Hydrate() error = %v, want ErrStaleHydration", err)
	}
	if m.IsAuthenticated() || m.User() != nil {
		t.Errorf("snapshot = %+v, want anonymous", m.Snapshot())
	}
}

func TestChangesSignal(t *testing.T) {
	users := &scriptedUsers{results: []result{{user: &models.User{Username: "jane"}}}}
	m := newManager(t, tokenstore.NewMemory(""), users)

	_ = m.Login("tok")
	select {
	case <-m.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change signalled after Login")
	}

	_ = m.Hydrate(context.Background())
	_ = m.Logout()
	// Signals coalesce into one pending notification.
	select {
	case <-m.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change signalled after Logout")
	}
	select {
	case <-m.Changes():
		t.Error("expected coalesced signals")
	default:
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	m := newManager(t, tokenstore.NewMemory(""), &scriptedUsers{})
	if err := m.Login(""); err == nil {
		t.Error("Login(\"\") error = nil")
	}
}

func TestTokenExpiry(t *testing.T) {
	want := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "jane",
		"exp": want.Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := TokenExpiry(signed)
	if !ok || !got.Equal(want) {
		t.Errorf("TokenExpiry() = %v, %v; want %v", got, ok, want)
	}

	if _, ok := TokenExpiry("opaque-token"); ok {
		t.Error("TokenExpiry() ok for an opaque token")
	}
}

func TestRevokeOnlyClearsMatchingToken(t *testing.T) {
	store := tokenstore.NewMemory("")
	users := &scriptedUsers{results: []result{{user: &models.User{Username: "jane"}}}}
	m := newManager(t, store, users)

	_ = m.Login("new")
	if err := m.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  State
	}{
		{"superseded token", "old", Authenticated},
		{"empty token", "", Authenticated},
		{"current token", "new", Anonymous},
	}
	for _, tt := range tests {
		if err := m.Revoke(tt.token); err != nil {
			t.Fatalf("%s: Revoke() error = %v", tt.name, err)
		}
		if got := m.State(); got != tt.want {
			t.Errorf("%s: state = %v, want %v", tt.name, got, tt.want)
		}
	}
	if stored, _ := store.Load(); stored != "" {
		t.Errorf("store still holds %q after revoke", stored)
	}
}
