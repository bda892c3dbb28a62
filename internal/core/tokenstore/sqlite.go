package tokenstore

import "github.com/neilberkman/leadrider/internal/core/db"

const tokenKey = "token"

// SQLite keeps the token in the settings table of the local database.
type SQLite struct {
	db *db.DB
}

// NewSQLite wraps an open database.
func NewSQLite(database *db.DB) *SQLite {
	return &SQLite{db: database}
}

func (s *SQLite) Load() (string, error) {
	token, _, err := s.db.GetSetting(tokenKey)
	return token, err
}

func (s *SQLite) Save(token string) error {
	if token == "" {
		return s.Clear()
	}
	return s.db.SetSetting(tokenKey, token)
}

func (s *SQLite) Clear() error {
	return s.db.DeleteSetting(tokenKey)
}
