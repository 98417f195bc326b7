package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a versioned schema change.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

const migrationsTable = "schema_migrations"

// Migrator applies embedded migrations in version order.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator with the embedded schema.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: Migrations()}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, "SELECT version, applied_at FROM "+migrationsTable+" ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
// It returns the number of migrations applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO "+migrationsTable+" (version, name) VALUES ($1, $2)",
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d (%s): %w", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		count++
	}

	return count, nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	last := 0
	for v := range applied {
		last = max(last, v)
	}
	if last == 0 {
		return nil
	}

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil || target.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, last)
	}

	return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, target.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", last, err)
		}
		_, err := tx.Exec(ctx, "DELETE FROM "+migrationsTable+" WHERE version = $1", last)
		return err
	})
}

// Status reports which migrations are applied.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)
	for i := range result {
		if at, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = at
		}
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Migrations returns the embedded schema migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_user_profiles", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_recommendation_batches", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS user_profiles (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    skills TEXT[] NOT NULL DEFAULT '{}',
    interests TEXT[] NOT NULL DEFAULT '{}',
    experience VARCHAR(20) NOT NULL DEFAULT 'beginner',
    role VARCHAR(20) NOT NULL DEFAULT 'developer',
    -- [{"day_of_week":1,"start_hour":9,"end_hour":17,"is_available":true}]
    availability JSONB NOT NULL DEFAULT '[]'::jsonb,
    bio TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- skills && $1 for skill search
CREATE INDEX IF NOT EXISTS idx_user_profiles_skills ON user_profiles USING GIN (skills);
CREATE INDEX IF NOT EXISTS idx_user_profiles_updated_at ON user_profiles(updated_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS user_profiles;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS recommendation_batches (
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
    items JSONB NOT NULL DEFAULT '[]'::jsonb,
    generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
    expires_at TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT valid_expiry CHECK (expires_at > generated_at)
);

CREATE INDEX IF NOT EXISTS idx_recommendation_batches_user ON recommendation_batches(user_id, generated_at DESC);
CREATE INDEX IF NOT EXISTS idx_recommendation_batches_expires ON recommendation_batches(expires_at);
`

const migration002Down = `
DROP TABLE IF EXISTS recommendation_batches;
`
