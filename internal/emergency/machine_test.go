package emergency

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-service/internal/authority"
	"guardian-service/internal/models"
)

type staticComposer struct{}

func (staticComposer) Compose(context.Context, string, *models.LocationSnapshot, string) string {
	return "distress message"
}

// recordingDispatcher counts calls and replies with canned results, or with
// a per-pair outcome derived from the contacts it receives.
type recordingDispatcher struct {
	mu       sync.Mutex
	calls    int
	contacts []models.DispatchContact
	results  []models.DispatchResult
	err      error
	echo     bool // build one successful result per pair instead of canned results
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ string, contacts []models.DispatchContact) ([]models.DispatchResult, authority.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.contacts = contacts
	if d.err != nil {
		return nil, authority.Result{}, d.err
	}
	if d.echo {
		var results []models.DispatchResult
		for _, c := range contacts {
			if c.Phone != "" {
				results = append(results, models.DispatchResult{ContactID: c.ID, Channel: models.ChannelSMS, OK: true})
			}
			if c.Email != "" {
				results = append(results, models.DispatchResult{ContactID: c.ID, Channel: models.ChannelEmail, OK: true})
			}
		}
		return results, authority.Result{}, nil
	}
	return d.results, authority.Result{}, nil
}

func (d *recordingDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testContacts() []models.Contact {
	return []models.Contact{
		{ID: "c1", Name: "Alice", Phone: "+49151", Email: "alice@example.com", Enabled: true},
		{ID: "c2", Name: "Bob", Phone: "+49152", Enabled: true},
	}
}

func newTestMachine(countdown int, contacts []models.Contact, d Dispatcher) *Machine {
	return NewMachine(MachineConfig{
		DisplayName:      "Alice",
		Reason:           "manual trigger",
		CountdownSeconds: countdown,
		Contacts:         contacts,
		Dispatcher:       d,
		Composer:         staticComposer{},
		Logger:           testLogger(),
	})
}

func TestTick_countsDownThenDispatchesExactlyOnce(t *testing.T) {
	d := &recordingDispatcher{echo: true}
	m := newTestMachine(3, testContacts(), d)

	ctx := context.Background()
	assert.True(t, m.Tick(ctx))
	assert.Equal(t, 2, m.Snapshot().Countdown)
	assert.True(t, m.Tick(ctx))
	assert.Equal(t, 1, m.Snapshot().Countdown)

	// Zero tick fires dispatch; repeated zero observations must not.
	assert.False(t, m.Tick(ctx))
	assert.False(t, m.Tick(ctx))
	assert.False(t, m.Tick(ctx))

	assert.Equal(t, 1, d.callCount())
	snap := m.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	require.Len(t, snap.Logs, 3)
	for _, e := range snap.Logs {
		assert.Equal(t, models.StatusSent, e.Status)
	}
}

func TestCancel_duringCountdownPreventsDispatch(t *testing.T) {
	d := &recordingDispatcher{echo: true}
	m := newTestMachine(5, testContacts(), d)

	ctx := context.Background()
	assert.True(t, m.Tick(ctx))
	require.True(t, m.Cancel())

	assert.Equal(t, StateCancelled, m.Snapshot().State)
	assert.False(t, m.Tick(ctx), "a cancelled session must not keep ticking")
	assert.Equal(t, 0, d.callCount())
}

func TestCancel_afterDispatchStartedIsRejected(t *testing.T) {
	d := &recordingDispatcher{echo: true}
	m := newTestMachine(1, testContacts(), d)

	assert.False(t, m.Tick(context.Background()))
	assert.Equal(t, 1, d.callCount())
	assert.False(t, m.Cancel())
	assert.Equal(t, StateComplete, m.Snapshot().State)
}

func TestDispatch_skipsDisabledContacts(t *testing.T) {
	contacts := append(testContacts(), models.Contact{
		ID: "c3", Name: "Mallory", Phone: "+49153", Enabled: false,
	})
	d := &recordingDispatcher{echo: true}
	m := newTestMachine(1, contacts, d)

	m.Tick(context.Background())

	require.Len(t, d.contacts, 2)
	for _, c := range d.contacts {
		assert.NotEqual(t, "c3", c.ID)
	}
	for _, e := range m.Snapshot().Logs {
		assert.NotEqual(t, "Mallory", e.ContactName)
	}
}

func TestFinish_unmatchedEntriesMarkedFailed(t *testing.T) {
	d := &recordingDispatcher{results: []models.DispatchResult{
		{ContactID: "c1", Channel: models.ChannelSMS, OK: true},
		{ContactID: "c1", Channel: models.ChannelEmail, OK: false, Error: "mailbox full"},
		// No result for c2/SMS at all.
	}}
	m := newTestMachine(1, testContacts(), d)

	m.Tick(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	require.Len(t, snap.Logs, 3)

	byKey := make(map[models.EntryKey]models.DispatchStatus)
	for _, e := range snap.Logs {
		byKey[e.Key] = e.Status
	}
	assert.Equal(t, models.StatusSent, byKey[models.EntryKey{ContactID: "c1", Channel: models.ChannelSMS}])
	assert.Equal(t, models.StatusFailed, byKey[models.EntryKey{ContactID: "c1", Channel: models.ChannelEmail}])
	assert.Equal(t, models.StatusFailed, byKey[models.EntryKey{ContactID: "c2", Channel: models.ChannelSMS}])
}

func TestDispatch_totalFailureMarksAllFailedAndCompletes(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("transport down")}
	m := newTestMachine(1, testContacts(), d)

	m.Tick(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateComplete, snap.State, "a failed attempt still completes the session")
	require.Len(t, snap.Logs, 3)
	for _, e := range snap.Logs {
		assert.Equal(t, models.StatusFailed, e.Status)
	}
}

func TestObservers_seeDispatchingBeforeComplete(t *testing.T) {
	d := &recordingDispatcher{echo: true}
	m := newTestMachine(1, testContacts(), d)

	var mu sync.Mutex
	var states []State
	m.Subscribe(func(ev Event) {
		mu.Lock()
		states = append(states, ev.State)
		mu.Unlock()
	})

	m.Tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.Contains(t, states, StateDispatching)
	assert.Equal(t, StateComplete, states[len(states)-1])
}

func TestUpdateLocation_flowsIntoSessionSnapshot(t *testing.T) {
	m := newTestMachine(5, testContacts(), &recordingDispatcher{echo: true})

	m.UpdateLocation(models.LocationSnapshot{Latitude: 52.52, Longitude: 13.405, Accuracy: 12})

	s := m.Session()
	require.NotNil(t, s.LastLocation)
	assert.Equal(t, 52.52, s.LastLocation.Latitude)
	assert.Equal(t, 13.405, s.LastLocation.Longitude)
}
