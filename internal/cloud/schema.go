package cloud

import (
	"context"
	"database/sql"
	"fmt"
)

// ExpectedSchemaVersion is the latest cloud schema version.
const ExpectedSchemaVersion = 2

type migration struct {
	description string
	queries     []string
	version     int
}

var migrations = []migration{
	{
		version:     1,
		description: "Users and purchases",
		queries: []string{
			`CREATE TABLE IF NOT EXISTS users (
				uid TEXT PRIMARY KEY,
				email TEXT,
				display_name TEXT,
				photo_url TEXT,
				profile JSONB,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS purchases (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
				ts TIMESTAMPTZ NOT NULL,
				doc JSONB NOT NULL
			)`,
		},
	},
	{
		version:     2,
		description: "Index purchases by owner and time",
		queries: []string{
			`CREATE INDEX IF NOT EXISTS idx_purchases_uid_ts ON purchases(uid, ts DESC)`,
		},
	},
}

// Migrate applies pending schema migrations inside one transaction each.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := d.apply(ctx, m); err != nil {
			return err
		}
		d.logger.Info("Applied migration", "version", m.version, "description", m.description)
	}

	final, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := d.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return int(version.Int64), nil
}

func (d *DB) apply(ctx context.Context, m migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range m.queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
