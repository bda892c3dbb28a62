// Package tokenstore holds the one durable slot the client persists: the bearer token.
package tokenstore

import "sync"

// Store is a single durable slot. Load returns "" when nothing is stored.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Memory is a process-local Store, used in tests and for --no-persist runs.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns an empty in-memory slot, optionally preloaded.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	return m.Save("")
}
