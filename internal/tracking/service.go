package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/db"
	"guardian-service/internal/models"
)

// ErrNotFound covers both a missing record and one past its TTL; callers
// must not be able to distinguish the two.
var ErrNotFound = errors.New("tracking session not found")

// ErrInvalidSessionID is returned by Publish for ids outside 4-32 chars
// after trimming; handlers map it to a client error.
var ErrInvalidSessionID = errors.New("session id must be 4-32 characters")

// Store is the persistence the tracking protocol needs: latest-snapshot
// upsert, raw read, and best-effort physical cleanup.
type Store interface {
	UpsertTracking(ctx context.Context, rec models.TrackingRecord) error
	GetTracking(ctx context.Context, sessionID string) (models.TrackingRecord, error)
	DeleteTrackingOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// Service implements the tracking session protocol: publishers upsert the
// latest position under a session code, subscribers poll it, and visibility
// is bounded by a TTL enforced at read time.
type Service struct {
	store  Store
	ttl    time.Duration
	logger *logrus.Logger

	now func() int64 // epoch millis, swappable in tests
}

func NewService(store Store, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Publish upserts the latest snapshot for a session. Last write wins by
// arrival time; session ids are upper-cased server-side.
func (s *Service) Publish(ctx context.Context, upd models.TrackingUpdate) error {
	id := normalizeSessionID(upd.SessionID)
	if err := validateSessionID(id); err != nil {
		return err
	}

	ts := s.now()
	rec := models.TrackingRecord{
		SessionID: id,
		Lat:       upd.Lat,
		Lng:       upd.Lng,
		Accuracy:  upd.Accuracy,
		SpeedKmh:  upd.SpeedKmh,
		Battery:   upd.Battery,
		Network:   upd.Network,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.store.UpsertTracking(ctx, rec); err != nil {
		return fmt.Errorf("publish %s: %w", id, err)
	}
	return nil
}

// Fetch returns the latest snapshot for a session, or ErrNotFound when the
// record is absent or its updatedAt is older than the TTL.
func (s *Service) Fetch(ctx context.Context, sessionID string) (models.TrackingRecord, error) {
	id := normalizeSessionID(sessionID)

	rec, err := s.store.GetTracking(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.TrackingRecord{}, ErrNotFound
		}
		return models.TrackingRecord{}, fmt.Errorf("fetch %s: %w", id, err)
	}

	if rec.UpdatedAt < s.now()-s.ttl.Milliseconds() {
		return models.TrackingRecord{}, ErrNotFound
	}
	return rec, nil
}

// Sweep physically deletes expired records. Logical expiry on read is what
// guarantees correctness; this only keeps the table lean.
func (s *Service) Sweep(ctx context.Context) {
	cutoff := s.now() - s.ttl.Milliseconds()
	n, err := s.store.DeleteTrackingOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Errorf("Tracking sweep failed: %v", err)
		return
	}
	if n > 0 {
		s.logger.Infof("Tracking sweep removed %d expired record(s)", n)
	}
}

// StartSweeper schedules periodic sweeps on the given cron runner.
func (s *Service) StartSweeper(c *cron.Cron) error {
	_, err := c.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule tracking sweep: %w", err)
	}
	return nil
}

func normalizeSessionID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func validateSessionID(id string) error {
	if len(id) < 4 || len(id) > 32 {
		return ErrInvalidSessionID
	}
	return nil
}
