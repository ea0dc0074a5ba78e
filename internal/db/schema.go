package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates the users table and its unique indexes if they do not
// exist. Safe to run on every startup.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			uuid UUID NOT NULL,
			email TEXT NOT NULL,
			user_name TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			country_code TEXT NOT NULL,
			name TEXT,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'rider',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (email)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_user_name_idx ON users (user_name)`,
	}

	for _, stmt := range statements {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
