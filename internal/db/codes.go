package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"guardian-service/internal/models"
)

// ErrCodeExpired is returned when a matching code exists but its expiry has
// passed.
var ErrCodeExpired = errors.New("code expired")

// CreateCode stores a one-time code for a user.
func (d *DB) CreateCode(ctx context.Context, userID int64, kind models.CodeKind, code string, expiresAt int64) error {
	_, err := d.Pool.Exec(ctx, `
	INSERT INTO codes (user_id, kind, code, expires_at, consumed, created_at)
	VALUES ($1, $2, $3, $4, false, $5)`,
		userID, kind, code, expiresAt, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create %s code for user %d: %w", kind, userID, err)
	}
	return nil
}

// ConsumeCode validates and burns the most recent unconsumed code of the
// given kind. Returns ErrNotFound when no matching code exists and
// ErrCodeExpired when it exists but is stale.
func (d *DB) ConsumeCode(ctx context.Context, userID int64, kind models.CodeKind, code string) error {
	var id int64
	var expiresAt int64
	err := d.Pool.QueryRow(ctx, `
	SELECT id, expires_at FROM codes
	WHERE user_id = $1 AND kind = $2 AND code = $3 AND consumed = false
	ORDER BY id DESC
	LIMIT 1`, userID, kind, code,
	).Scan(&id, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to look up %s code for user %d: %w", kind, userID, err)
	}

	if expiresAt < time.Now().UnixMilli() {
		return ErrCodeExpired
	}

	if _, err := d.Pool.Exec(ctx, `UPDATE codes SET consumed = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to consume code %d: %w", id, err)
	}
	return nil
}
