package tracking

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-service/internal/models"
)

func newTestService(ttl time.Duration) (*Service, *MemoryStore) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := NewMemoryStore()
	return NewService(store, ttl, logger), store
}

func TestPublishFetch_roundTrip(t *testing.T) {
	svc, _ := newTestService(time.Hour)
	svc.now = func() int64 { return 1000 }

	battery := 87.0
	network := "wifi"
	err := svc.Publish(context.Background(), models.TrackingUpdate{
		SessionID: "abcd1234",
		Lat:       52.52, Lng: 13.405, Accuracy: 8.5, SpeedKmh: 14.2,
		Battery: &battery, Network: &network,
	})
	require.NoError(t, err)

	rec, err := svc.Fetch(context.Background(), "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", rec.SessionID)
	assert.Equal(t, 52.52, rec.Lat)
	assert.Equal(t, 13.405, rec.Lng)
	assert.Equal(t, 8.5, rec.Accuracy)
	assert.Equal(t, 14.2, rec.SpeedKmh)
	require.NotNil(t, rec.Battery)
	assert.Equal(t, 87.0, *rec.Battery)
	require.NotNil(t, rec.Network)
	assert.Equal(t, "wifi", *rec.Network)
	assert.Equal(t, int64(1000), rec.CreatedAt)
	assert.Equal(t, int64(1000), rec.UpdatedAt)
}

func TestPublish_lastWriteWinsPreservingCreatedAt(t *testing.T) {
	svc, _ := newTestService(time.Hour)
	clock := int64(1000)
	svc.now = func() int64 { return clock }

	require.NoError(t, svc.Publish(context.Background(), models.TrackingUpdate{SessionID: "TRACK01", Lat: 1, Lng: 1}))

	clock = 2000
	require.NoError(t, svc.Publish(context.Background(), models.TrackingUpdate{SessionID: "track01", Lat: 2, Lng: 3}))

	rec, err := svc.Fetch(context.Background(), "TRACK01")
	require.NoError(t, err)
	assert.Equal(t, 2.0, rec.Lat)
	assert.Equal(t, 3.0, rec.Lng)
	assert.Equal(t, int64(1000), rec.CreatedAt, "first publish fixes createdAt")
	assert.Equal(t, int64(2000), rec.UpdatedAt)
}

func TestPublish_validatesSessionID(t *testing.T) {
	svc, _ := newTestService(time.Hour)

	err := svc.Publish(context.Background(), models.TrackingUpdate{SessionID: "abc"})
	assert.ErrorIs(t, err, ErrInvalidSessionID, "session id shorter than 4 chars")

	err = svc.Publish(context.Background(), models.TrackingUpdate{SessionID: strings.Repeat("a", 33)})
	assert.ErrorIs(t, err, ErrInvalidSessionID, "session id longer than 32 chars")

	// Padding does not count toward the length.
	err = svc.Publish(context.Background(), models.TrackingUpdate{SessionID: " ab "})
	assert.ErrorIs(t, err, ErrInvalidSessionID, "whitespace-padded short id")
}

func TestFetch_unknownAndExpiredAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(time.Minute)
	clock := int64(1_000_000)
	svc.now = func() int64 { return clock }

	_, err := svc.Fetch(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Publish(context.Background(), models.TrackingUpdate{SessionID: "LIVE1234", Lat: 1, Lng: 1}))

	// Exactly at the TTL boundary the record is still visible.
	clock = 1_000_000 + time.Minute.Milliseconds()
	_, err = svc.Fetch(context.Background(), "LIVE1234")
	assert.NoError(t, err)

	// One millisecond past it the record is gone.
	clock++
	_, err = svc.Fetch(context.Background(), "LIVE1234")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweep_removesOnlyExpiredRecords(t *testing.T) {
	svc, store := newTestService(time.Minute)
	clock := int64(1_000_000)
	svc.now = func() int64 { return clock }

	require.NoError(t, svc.Publish(context.Background(), models.TrackingUpdate{SessionID: "OLD12345"}))
	clock += 2 * time.Minute.Milliseconds()
	require.NoError(t, svc.Publish(context.Background(), models.TrackingUpdate{SessionID: "NEW12345"}))

	svc.Sweep(context.Background())

	_, err := store.GetTracking(context.Background(), "OLD12345")
	assert.Error(t, err)
	_, err = store.GetTracking(context.Background(), "NEW12345")
	assert.NoError(t, err)
}
