package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration is one versioned schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the full, ordered schema history. New steps append; applied
// steps never change.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "processed_emails",
		SQL: `
			CREATE TABLE IF NOT EXISTS processed_emails (
				id TEXT PRIMARY KEY,
				uid INTEGER NOT NULL,
				message_id TEXT NOT NULL DEFAULT '',
				sender TEXT NOT NULL DEFAULT '',
				subject TEXT NOT NULL DEFAULT '',
				email_date TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (uid, message_id)
			);
		`,
	},
	{
		Version: 2,
		Name:    "invoice_records",
		SQL: `
			CREATE TABLE IF NOT EXISTS invoice_records (
				id TEXT PRIMARY KEY,
				email_id TEXT NOT NULL REFERENCES processed_emails(id),
				amount REAL,
				currency TEXT NOT NULL DEFAULT '',
				vendor TEXT NOT NULL DEFAULT '',
				concept TEXT NOT NULL DEFAULT '',
				invoice_number TEXT NOT NULL DEFAULT '',
				invoice_date TEXT NOT NULL DEFAULT '',
				due_date TEXT NOT NULL DEFAULT '',
				tax_amount REAL,
				tax_id TEXT NOT NULL DEFAULT '',
				payment_method TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL DEFAULT '',
				confidence REAL NOT NULL DEFAULT 0,
				extraction_method TEXT NOT NULL DEFAULT '',
				archived_paths TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_invoice_records_email
				ON invoice_records(email_id);
		`,
	},
}

// Migrate applies every pending schema step inside its own transaction.
func (db *DB) Migrate() error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		db.logger.Info("applying migration",
			zap.Int("version", m.Version),
			zap.String("name", m.Name))

		err := db.WithTransaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("failed to execute migration SQL: %w", err)
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				m.Version, m.Name,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (db *DB) appliedMigrations() (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
