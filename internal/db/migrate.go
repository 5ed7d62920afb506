package db

import (
	"context"
	"fmt"
)

// Bootstrap creates the schema if it does not exist. Statements are
// idempotent so multiple instances can start concurrently.
func (d *DB) Bootstrap(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		tactical_id TEXT NOT NULL,
		full_name TEXT,
		blood_type TEXT,
		emergency_note TEXT,
		created_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS codes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		code TEXT NOT NULL,
		expires_at BIGINT NOT NULL,
		consumed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_codes_user_kind ON codes(user_id, kind);
	CREATE INDEX IF NOT EXISTS idx_codes_expires ON codes(expires_at);

	CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'FAMILY',
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		priority INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);

	-- Latest location per session (persistent across restarts)
	CREATE TABLE IF NOT EXISTS tracking_latest (
		session_id TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		accuracy DOUBLE PRECISION NOT NULL,
		speed_kmh DOUBLE PRECISION NOT NULL,
		battery DOUBLE PRECISION,
		network TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_latest_updated ON tracking_latest(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}
