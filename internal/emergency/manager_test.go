package emergency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-service/internal/models"
)

type staticContacts struct {
	contacts []models.Contact
}

func (s staticContacts) GetContactsByUserID(context.Context, int64) ([]models.Contact, error) {
	return s.contacts, nil
}

func newTestManager(d Dispatcher) *Manager {
	return NewManager(staticContacts{contacts: testContacts()}, nil, d, staticComposer{}, 60, 0, testLogger())
}

func TestTrigger_secondTriggerWhileArmedIsRejected(t *testing.T) {
	mgr := newTestManager(&recordingDispatcher{echo: true})

	m, err := mgr.Trigger(context.Background(), 1, "Alice", "manual", "")
	require.NoError(t, err)
	defer m.Stop()

	_, err = mgr.Trigger(context.Background(), 1, "Alice", "manual", "")
	assert.ErrorIs(t, err, ErrSessionActive)

	ev, ok := mgr.Status()
	require.True(t, ok)
	assert.Equal(t, StateArmed, ev.State)
}

func TestCancel_thenTriggerAgain(t *testing.T) {
	mgr := newTestManager(&recordingDispatcher{echo: true})

	_, err := mgr.Trigger(context.Background(), 1, "Alice", "manual", "")
	require.NoError(t, err)
	require.NoError(t, mgr.Cancel())

	_, ok := mgr.Status()
	assert.False(t, ok, "cancel clears the active session")

	m, err := mgr.Trigger(context.Background(), 1, "Alice", "manual", "")
	require.NoError(t, err)
	m.Stop()
}

func TestCancel_withoutSession(t *testing.T) {
	mgr := newTestManager(&recordingDispatcher{echo: true})
	assert.ErrorIs(t, mgr.Cancel(), ErrNoSession)
	assert.ErrorIs(t, mgr.Stop(), ErrNoSession)
}

func TestReportLocation_flowsIntoActiveSession(t *testing.T) {
	mgr := newTestManager(&recordingDispatcher{echo: true})

	m, err := mgr.Trigger(context.Background(), 1, "Alice", "manual", "")
	require.NoError(t, err)
	defer m.Stop()

	require.NoError(t, mgr.ReportLocation(models.LocationSnapshot{Latitude: 48.137, Longitude: 11.575}))
	s := m.Session()
	require.NotNil(t, s.LastLocation)
	assert.Equal(t, 48.137, s.LastLocation.Latitude)
}

type countingTracker struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingTracker) Fetch(_ context.Context, code string) (models.TrackingRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[code]++
	return models.TrackingRecord{Lat: 1, Lng: 2}, nil
}

func (c *countingTracker) count(code string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[code]
}

func TestTrigger_replacingFinishedSessionStopsItsPolling(t *testing.T) {
	tracker := &countingTracker{}
	mgr := NewManager(staticContacts{contacts: testContacts()}, tracker, &recordingDispatcher{echo: true},
		staticComposer{}, 60, 5*time.Millisecond, testLogger())

	first, err := mgr.Trigger(context.Background(), 1, "Alice", "manual", "FIRST123")
	require.NoError(t, err)

	// Run the first session to COMPLETE without waiting out the ticker.
	for first.Tick(context.Background()) {
	}
	require.Equal(t, StateComplete, first.Snapshot().State)

	_, err = mgr.Trigger(context.Background(), 1, "Alice", "manual", "SECOND12")
	require.NoError(t, err)
	defer mgr.Stop()

	// Let any fetch that was in flight at replacement drain, then the
	// first session's feed must be quiet while the second keeps polling.
	time.Sleep(50 * time.Millisecond)
	firstBaseline := tracker.count("FIRST123")
	secondBaseline := tracker.count("SECOND12")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, firstBaseline, tracker.count("FIRST123"), "replaced session must stop polling")
	assert.Greater(t, tracker.count("SECOND12"), secondBaseline, "active session keeps polling")
}

func TestTrackingToSnapshot_convertsUnits(t *testing.T) {
	battery := 80.0
	network := "lte"
	rec := models.TrackingRecord{
		Lat: 49.0, Lng: 8.4, Accuracy: 20, SpeedKmh: 36,
		Battery: &battery, Network: &network, UpdatedAt: 12345,
	}

	snap := trackingToSnapshot(rec)
	assert.Equal(t, 49.0, snap.Latitude)
	assert.Equal(t, 8.4, snap.Longitude)
	assert.Equal(t, int64(12345), snap.Timestamp)
	require.NotNil(t, snap.Speed)
	assert.InDelta(t, 10.0, *snap.Speed, 1e-9)
	require.NotNil(t, snap.BatteryLevel)
	assert.InDelta(t, 0.8, *snap.BatteryLevel, 1e-9)
	assert.Equal(t, "lte", snap.NetworkType)
}
