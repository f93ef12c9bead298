package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Attempts table - one row per completed code entry
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			result TEXT NOT NULL CHECK(result IN ('success', 'fail')),
			command_name TEXT NOT NULL DEFAULT '',
			action_id TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL,
			max_digit INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
