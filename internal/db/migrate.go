package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Statements are idempotent so both binaries can run them at boot.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS coaches (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users(id),
		experience_years INT NOT NULL,
		description TEXT NOT NULL,
		profile_image_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS coach_link_skills (
		id UUID PRIMARY KEY,
		coach_id UUID NOT NULL REFERENCES coaches(id) ON DELETE CASCADE,
		skill_id UUID NOT NULL REFERENCES skills(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		skill_id UUID NOT NULL REFERENCES skills(id),
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ NOT NULL,
		max_participants INT NOT NULL,
		meeting_url TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS course_bookings (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		course_id UUID NOT NULL REFERENCES courses(id),
		booked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		cancelled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// one ACTIVE booking per (user, course); cancelled rows stay for history
	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_user_course_active_uniq
		ON course_bookings (user_id, course_id)
		WHERE cancelled_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS credit_packages (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		credit_amount INT NOT NULL,
		price NUMERIC(10,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS credit_purchases (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		credit_package_id UUID NOT NULL,
		purchased_credits INT NOT NULL,
		price_paid NUMERIC(10,2) NOT NULL,
		purchase_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INT NOT NULL DEFAULT 0,
		max_attempts INT NOT NULL DEFAULT 10,
		run_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		locked_at TIMESTAMPTZ,
		locked_by TEXT,
		last_error TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_pending_run_at_idx
		ON jobs (run_at) WHERE status = 'pending'`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
