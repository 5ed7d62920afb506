package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"guardian-service/internal/models"
)

// UpsertTracking writes the latest snapshot for a session. Last write wins;
// created_at is preserved across overwrites.
func (d *DB) UpsertTracking(ctx context.Context, rec models.TrackingRecord) error {
	_, err := d.Pool.Exec(ctx, `
	INSERT INTO tracking_latest (session_id, lat, lng, accuracy, speed_kmh, battery, network, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (session_id) DO UPDATE SET
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		accuracy = EXCLUDED.accuracy,
		speed_kmh = EXCLUDED.speed_kmh,
		battery = EXCLUDED.battery,
		network = EXCLUDED.network,
		updated_at = EXCLUDED.updated_at`,
		rec.SessionID, rec.Lat, rec.Lng, rec.Accuracy, rec.SpeedKmh, rec.Battery, rec.Network, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert tracking record %s: %w", rec.SessionID, err)
	}
	return nil
}

// GetTracking returns the stored record for a session regardless of age.
// TTL visibility is enforced by the caller.
func (d *DB) GetTracking(ctx context.Context, sessionID string) (models.TrackingRecord, error) {
	var rec models.TrackingRecord
	err := d.Pool.QueryRow(ctx, `
	SELECT session_id, lat, lng, accuracy, speed_kmh, battery, network, created_at, updated_at
	FROM tracking_latest
	WHERE session_id = $1
	LIMIT 1`, sessionID,
	).Scan(&rec.SessionID, &rec.Lat, &rec.Lng, &rec.Accuracy, &rec.SpeedKmh, &rec.Battery, &rec.Network, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TrackingRecord{}, ErrNotFound
		}
		return models.TrackingRecord{}, fmt.Errorf("failed to get tracking record %s: %w", sessionID, err)
	}
	return rec, nil
}

// DeleteTrackingOlderThan physically removes records last updated before
// cutoff (epoch millis). Best-effort cleanup only; logical expiry on read is
// what guarantees correctness.
func (d *DB) DeleteTrackingOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM tracking_latest WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep tracking records: %w", err)
	}
	return tag.RowsAffected(), nil
}
