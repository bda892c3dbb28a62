// Package session owns who is logged in: the bearer token, the hydrated user
// profile, and the Anonymous -> Hydrating -> Authenticated state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/neilberkman/leadrider/internal/core/models"
	"github.com/neilberkman/leadrider/internal/core/tokenstore"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotAuthenticated is returned by operations that need a token when there is none.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrStaleHydration means the token changed while its user was being fetched; the result was dropped.
	ErrStaleHydration = errors.New("session changed while fetching the current user")
)

// State is the session lifecycle stage.
type State int

const (
	Anonymous State = iota
	Hydrating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Hydrating:
		return "hydrating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// UserFetcher resolves the profile behind the current token (GET /users/me).
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	State         State
	User          *models.User
	Authenticated bool
	Loading       bool
}

// Manager is the single source of truth for the session. Only the Manager writes the token slot.
type Manager struct {
	store tokenstore.Store
	users UserFetcher
	log   logrus.FieldLogger

	mu    sync.Mutex
	token string
	user  *models.User
	// gen changes on every login/logout; a hydration result is applied only if gen is unchanged.
	gen uint64
	// hydrated is the gen whose hydration has been started.
	hydrated uint64

	changes chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for state transitions.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager restores the token from store. A restored token leaves the session Hydrating;
// call Hydrate to resolve it.
func NewManager(store tokenstore.Store, users UserFetcher, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:   store,
		users:   users,
		log:     logrus.StandardLogger(),
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if token != "" {
		m.token = token
		m.gen = 1
		m.log.Debug("session restored from storage")
	}
	return m, nil
}

// Login persists token and enters Hydrating.
func (m *Manager) Login(token string) error {
	if token == "" {
		return errors.New("login: empty token")
	}

	m.mu.Lock()
	if err := m.store.Save(token); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to persist token: %w", err)
	}
	m.token = token
	m.user = nil
	m.gen++
	m.mu.Unlock()

	m.log.Info("logged in, fetching profile")
	m.notify()
	return nil
}

// Hydrate fetches the user for the current token. It issues at most one request per
// token: it is a no-op when the session is Authenticated or a hydration for this
// token already started. Any failure clears the session.
func (m *Manager) Hydrate(ctx context.Context) error {
	m.mu.Lock()
	if m.token == "" {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if m.user != nil || m.hydrated == m.gen {
		m.mu.Unlock()
		return nil
	}
	gen := m.gen
	m.hydrated = gen
	m.mu.Unlock()

	user, err := m.users.CurrentUser(ctx)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to fetch current user: %w", err)
		}
		return ErrStaleHydration
	}
	if err != nil {
		clearErr := m.clearLocked()
		m.mu.Unlock()
		m.log.WithError(err).Warn("profile fetch failed, session cleared")
		if clearErr != nil {
			m.log.WithError(clearErr).Warn("could not clear stored token")
		}
		m.notify()
		return fmt.Errorf("failed to fetch current user: %w", err)
	}
	m.user = user
	m.mu.Unlock()

	m.log.WithField("username", user.Username).Info("session authenticated")
	m.notify()
	return nil
}

// Logout clears token and user immediately. No request is made.
func (m *Manager) Logout() error {
	m.mu.Lock()
	wasLoggedIn := m.token != ""
	err := m.clearLocked()
	m.mu.Unlock()

	if wasLoggedIn {
		m.log.Info("logged out")
		m.notify()
	}
	if err != nil {
		return fmt.Errorf("failed to clear stored token: %w", err)
	}
	return nil
}

// Revoke logs out only if token is still the current one. A rejection that
// arrives after the user logged in again with a different token is ignored.
func (m *Manager) Revoke(token string) error {
	m.mu.Lock()
	if token == "" || m.token != token {
		m.mu.Unlock()
		m.log.Debug("ignoring rejection of a superseded token")
		return nil
	}
	err := m.clearLocked()
	m.mu.Unlock()

	m.log.Warn("token rejected by backend, logged out")
	m.notify()
	if err != nil {
		return fmt.Errorf("failed to clear stored token: %w", err)
	}
	return nil
}

// clearLocked drops the session. The in-memory state is cleared even if the store fails.
func (m *Manager) clearLocked() error {
	err := m.store.Clear()
	m.token = ""
	m.user = nil
	m.gen++
	return err
}

// Token returns the current bearer token, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns a copy of the hydrated profile, or nil.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsAuthenticated reports whether a token is present. It is true while Hydrating so
// screens stay reachable while the profile loads.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// Loading reports whether the session is Hydrating.
func (m *Manager) Loading() bool {
	return m.State() == Hydrating
}

// State returns the lifecycle stage.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	switch {
	case m.token == "":
		return Anonymous
	case m.user == nil:
		return Hydrating
	default:
		return Authenticated
	}
}

// Snapshot returns state, user and flags read under one lock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		State:         m.stateLocked(),
		Authenticated: m.token != "",
	}
	s.Loading = s.State == Hydrating
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// Changes signals after any state change. Signals coalesce; read Snapshot for the current state.
func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

func (m *Manager) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
