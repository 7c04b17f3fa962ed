package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

type migration struct {
	version int
	name    string
	stmt    string
}

// migrations is the single ordered schema history. Each entry runs exactly
// once, tracked by the schema_migrations marker table. The uniqueness
// constraints here are load-bearing: the idempotence of lead upsert, work
// codes and assignments relies on the database rejecting duplicates, not on
// application checks.
var migrations = []migration{
	{1, "create_leads", `
		CREATE TABLE leads (
			id UUID PRIMARY KEY,
			name TEXT,
			email TEXT,
			phone_e164 TEXT NOT NULL UNIQUE,
			phone_last10 TEXT NOT NULL,
			raw_phone TEXT,
			country TEXT,
			gender TEXT,
			age INT,
			note TEXT,
			ip TEXT,
			work_code TEXT UNIQUE,
			group_posted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX idx_leads_phone_last10 ON leads(phone_last10);
	`},
	{2, "create_executives", `
		CREATE TABLE executives (
			id UUID PRIMARY KEY,
			phone_e164 TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			assigned_count INT NOT NULL DEFAULT 0 CHECK (assigned_count >= 0),
			last_assigned_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`},
	{3, "create_assignments", `
		CREATE TABLE assignments (
			id UUID PRIMARY KEY,
			lead_id UUID NOT NULL UNIQUE REFERENCES leads(id),
			executive_id UUID REFERENCES executives(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX idx_assignments_pending ON assignments(created_at) WHERE executive_id IS NULL;
	`},
}

// Migrate applies all pending migrations in order. Safe to run on every
// process start.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, db, m.version)
		if err != nil {
			return err
		}
		if applied {
			log.Debug().Int("version", m.version).Str("name", m.name).Msg("migration already applied")
			continue
		}

		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d_%s failed: %w", m.version, m.name, err)
		}
		log.Info().Int("version", m.version).Str("name", m.name).Msg("migration applied")
	}

	return nil
}

func migrationApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	var applied bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
	).Scan(&applied)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return applied, nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name,
	); err != nil {
		return err
	}
	return tx.Commit()
}
