package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Categories, payment methods and patterns",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense', 'both')),
					color TEXT NOT NULL DEFAULT '',
					auto_rules TEXT NOT NULL DEFAULT '{}',
					validation_rules TEXT NOT NULL DEFAULT '{}',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS payment_methods (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE,
					type TEXT NOT NULL CHECK (type IN ('cash', 'bank_transfer', 'e_wallet', 'other'))
				)`,

				`CREATE TABLE IF NOT EXISTS patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					description_pattern TEXT NOT NULL,
					amount_range_min TEXT,
					amount_range_max TEXT,
					frequency TEXT NOT NULL DEFAULT '',
					category_id INTEGER NOT NULL REFERENCES categories(id),
					confidence_score REAL NOT NULL CHECK (confidence_score >= 0 AND confidence_score <= 100),
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_patterns_active ON patterns(is_active)`,
				`CREATE INDEX idx_patterns_category ON patterns(category_id)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Recorded transactions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					transaction_date TEXT NOT NULL,
					amount TEXT NOT NULL,
					description TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
					payment_method_id INTEGER REFERENCES payment_methods(id),
					category_id INTEGER REFERENCES categories(id),
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(transaction_date)`,
				`CREATE INDEX idx_transactions_category_date ON transactions(category_id, transaction_date)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Classification and manual override ledger",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS classification_logs (
					id TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					suggested_category_id INTEGER,
					actual_category_id INTEGER NOT NULL,
					confidence_score REAL NOT NULL DEFAULT 0,
					pattern_matched TEXT NOT NULL DEFAULT '',
					is_manual_override BOOLEAN NOT NULL DEFAULT 0,
					timestamp TEXT NOT NULL
				)`,
				`CREATE INDEX idx_classification_logs_timestamp ON classification_logs(timestamp)`,

				`CREATE TABLE IF NOT EXISTS manual_override_logs (
					id TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					original_category_id INTEGER,
					new_category_id INTEGER NOT NULL,
					reason TEXT NOT NULL DEFAULT '',
					confidence_score REAL NOT NULL DEFAULT 0,
					pattern_matched TEXT NOT NULL DEFAULT '',
					timestamp TEXT NOT NULL
				)`,
				`CREATE INDEX idx_manual_override_logs_timestamp ON manual_override_logs(timestamp)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the database's current user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
