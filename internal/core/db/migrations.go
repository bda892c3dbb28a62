package db

import (
	"database/sql"
	"fmt"
)

// runMigrations applies database migrations for existing databases.
// The applied level is tracked in PRAGMA user_version.
func (db *DB) runMigrations() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []func() error{
		db.migration001SettingsUpdatedAt,
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration %03d: %w", i+1, err)
		}
		if _, err := db.conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("record schema version %d: %w", i+1, err)
		}
	}

	return nil
}

// migration001SettingsUpdatedAt adds settings.updated_at
func (db *DB) migration001SettingsUpdatedAt() error {
	var hasColumn bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('settings')
		WHERE name='updated_at'
	`).Scan(&hasColumn)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if hasColumn {
		return nil
	}

	_, err = db.conn.Exec(`ALTER TABLE settings ADD COLUMN updated_at DATETIME`)
	return err
}
