package db

func (db *DB) initSchema() error {
	schema := `
	-- Key/value settings (the session token lives here)
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}
