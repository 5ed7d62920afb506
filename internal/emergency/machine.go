package emergency

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/authority"
	"guardian-service/internal/models"
)

// State is the lifecycle phase of an emergency session.
type State string

const (
	StateArmed       State = "ARMED"
	StateDispatching State = "DISPATCHING"
	StateComplete    State = "COMPLETE"
	StateCancelled   State = "CANCELLED"
)

// Dispatcher is the fan-out entry point the machine drives once per session.
type Dispatcher interface {
	Dispatch(ctx context.Context, message string, contacts []models.DispatchContact) ([]models.DispatchResult, authority.Result, error)
}

// Composer produces the distress message. Implementations must degrade to a
// static template rather than fail.
type Composer interface {
	Compose(ctx context.Context, displayName string, loc *models.LocationSnapshot, reason string) string
}

// LocationSource yields the most recent position fix, if any.
type LocationSource interface {
	Current(ctx context.Context) (models.LocationSnapshot, error)
}

// LocationFunc adapts a function to LocationSource.
type LocationFunc func(ctx context.Context) (models.LocationSnapshot, error)

func (f LocationFunc) Current(ctx context.Context) (models.LocationSnapshot, error) {
	return f(ctx)
}

// Event is an immutable snapshot of machine state pushed to observers after
// every transition or log update.
type Event struct {
	SessionID string                    `json:"sessionId"`
	State     State                     `json:"state"`
	Countdown int                       `json:"countdown"`
	Message   string                    `json:"message,omitempty"`
	Logs      []models.DispatchLogEntry `json:"logs"`
}

// Observer receives state snapshots. Observers must not block.
type Observer func(Event)

// Machine runs one emergency session: a countdown while ARMED, a single
// fan-out on reaching zero, and per-entry log reconciliation. The
// ARMED -> DISPATCHING transition is guarded by a one-shot latch because the
// zero tick can be observed more than once.
type Machine struct {
	mu         sync.Mutex
	state      State
	countdown  int
	session    models.EmergencySession
	contacts   []models.Contact
	logs       []models.DispatchLogEntry
	logIndex   map[models.EntryKey]int
	message    string
	dispatched bool

	displayName string
	pollEvery   time.Duration

	dispatcher Dispatcher
	composer   Composer
	locations  LocationSource
	logger     *logrus.Logger
	observers  []Observer

	stopPolling context.CancelFunc
	completed   func() // hosting-context hook: an attempt was made
}

// MachineConfig carries the per-session knobs and collaborators.
type MachineConfig struct {
	DisplayName      string
	Reason           string
	CountdownSeconds int
	LocationPoll     time.Duration
	Contacts         []models.Contact
	Dispatcher       Dispatcher
	Composer         Composer
	Locations        LocationSource
	Logger           *logrus.Logger
	OnComplete       func()
}

func NewMachine(cfg MachineConfig) *Machine {
	if cfg.CountdownSeconds <= 0 {
		cfg.CountdownSeconds = 5
	}
	if cfg.LocationPoll <= 0 {
		cfg.LocationPoll = 10 * time.Second
	}
	return &Machine{
		state:     StateArmed,
		countdown: cfg.CountdownSeconds,
		session: models.EmergencySession{
			ID:        uuid.NewString(),
			StartTime: time.Now().UnixMilli(),
			IsActive:  true,
			Reason:    cfg.Reason,
		},
		contacts:    cfg.Contacts,
		logIndex:    make(map[models.EntryKey]int),
		displayName: cfg.DisplayName,
		pollEvery:   cfg.LocationPoll,
		dispatcher:  cfg.Dispatcher,
		composer:    cfg.Composer,
		locations:   cfg.Locations,
		logger:      cfg.Logger,
		completed:   cfg.OnComplete,
	}
}

// Subscribe registers an observer for state snapshots.
func (m *Machine) Subscribe(obs Observer) {
	m.mu.Lock()
	m.observers = append(m.observers, obs)
	m.mu.Unlock()
}

// SessionID returns the session identifier.
func (m *Machine) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ID
}

// Start runs the countdown ticker and the location poll loop until the
// session ends. ctx cancellation stops both without dispatching.
func (m *Machine) Start(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.stopPolling = cancel
	m.mu.Unlock()

	go m.pollLocations(pollCtx)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !m.Tick(ctx) {
					return
				}
			}
		}
	}()
}

// Tick decrements the countdown and fires dispatch exactly once when it
// reaches zero. Returns false once ticking is no longer meaningful.
func (m *Machine) Tick(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != StateArmed {
		m.mu.Unlock()
		return false
	}
	if m.countdown > 0 {
		m.countdown--
	}
	if m.countdown > 0 {
		ev := m.snapshotLocked()
		m.mu.Unlock()
		m.emit(ev)
		return true
	}

	// One-shot latch: the zero tick can be observed repeatedly, the
	// transition must not.
	if m.dispatched {
		m.mu.Unlock()
		return false
	}
	m.dispatched = true
	m.state = StateDispatching
	ev := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(ev)

	m.runDispatch(ctx)
	return false
}

// Cancel aborts the countdown. It only succeeds while ARMED; once dispatch
// has begun the in-flight sends run to completion.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	if m.state != StateArmed {
		m.mu.Unlock()
		return false
	}
	m.state = StateCancelled
	m.session.IsActive = false
	stop := m.stopPolling
	ev := m.snapshotLocked()
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	m.emit(ev)
	m.logger.Infof("Emergency session %s cancelled during countdown", ev.SessionID)
	return true
}

// Stop ends location polling and marks the session inactive. It has no
// effect on an in-flight or finished dispatch.
func (m *Machine) Stop() {
	m.mu.Lock()
	m.session.IsActive = false
	stop := m.stopPolling
	m.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// UpdateLocation replaces the session's last known position.
func (m *Machine) UpdateLocation(loc models.LocationSnapshot) {
	m.mu.Lock()
	snap := loc
	m.session.LastLocation = &snap
	m.mu.Unlock()
}

// Snapshot returns the current state for polling clients.
func (m *Machine) Snapshot() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Session returns a copy of the session record.
func (m *Machine) Session() models.EmergencySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	if m.session.LastLocation != nil {
		loc := *m.session.LastLocation
		s.LastLocation = &loc
	}
	return s
}

func (m *Machine) runDispatch(ctx context.Context) {
	m.mu.Lock()
	loc := m.session.LastLocation
	reason := m.session.Reason
	m.mu.Unlock()

	// Composer degrades to a static template on any failure; dispatch is
	// never blocked on message generation.
	message := m.composer.Compose(ctx, m.displayName, loc, reason)

	// Build the full pending log before any network round-trip so the UI
	// has a deterministic initial state.
	enabled := make([]models.DispatchContact, 0, len(m.contacts))
	var logs []models.DispatchLogEntry
	index := make(map[models.EntryKey]int)
	now := time.Now().UnixMilli()
	for _, c := range m.contacts {
		if !c.Enabled {
			continue
		}
		enabled = append(enabled, models.DispatchContact{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email})
		if phone := strings.TrimSpace(c.Phone); phone != "" {
			key := models.EntryKey{ContactID: c.ID, Channel: models.ChannelSMS}
			index[key] = len(logs)
			logs = append(logs, models.DispatchLogEntry{
				ID: uuid.NewString(), ContactName: c.Name, Target: phone,
				Channel: models.ChannelSMS, Status: models.StatusPending, Timestamp: now, Key: key,
			})
		}
		if addr := strings.TrimSpace(c.Email); addr != "" {
			key := models.EntryKey{ContactID: c.ID, Channel: models.ChannelEmail}
			index[key] = len(logs)
			logs = append(logs, models.DispatchLogEntry{
				ID: uuid.NewString(), ContactName: c.Name, Target: addr,
				Channel: models.ChannelEmail, Status: models.StatusPending, Timestamp: now, Key: key,
			})
		}
	}

	m.mu.Lock()
	m.message = message
	m.logs = logs
	m.logIndex = index
	ev := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(ev)

	m.setAllStatus(models.StatusUplinking)

	results, _, err := m.dispatcher.Dispatch(ctx, message, enabled)
	if err != nil {
		// Total transport failure: nothing may stay stuck at UPLINKING.
		m.logger.Errorf("Dispatch call failed for session %s: %v", m.SessionID(), err)
		m.finish(nil)
		return
	}
	m.finish(results)
}

// finish reconciles results onto log entries by (contact id, channel) and
// transitions to COMPLETE. Complete means the fan-out was attempted and
// resolved, not that every channel succeeded.
func (m *Machine) finish(results []models.DispatchResult) {
	m.mu.Lock()
	matched := make(map[models.EntryKey]bool, len(results))
	for _, r := range results {
		key := models.EntryKey{ContactID: r.ContactID, Channel: r.Channel}
		if i, ok := m.logIndex[key]; ok {
			if r.OK {
				m.logs[i].Status = models.StatusSent
			} else {
				m.logs[i].Status = models.StatusFailed
			}
			matched[key] = true
		}
	}
	for i := range m.logs {
		if !matched[m.logs[i].Key] {
			m.logs[i].Status = models.StatusFailed
		}
	}
	m.state = StateComplete
	ev := m.snapshotLocked()
	done := m.completed
	m.mu.Unlock()

	m.emit(ev)
	if done != nil {
		done()
	}
	m.logger.Infof("Emergency session %s dispatch complete (%d log entries)", ev.SessionID, len(ev.Logs))
}

func (m *Machine) setAllStatus(status models.DispatchStatus) {
	m.mu.Lock()
	for i := range m.logs {
		m.logs[i].Status = status
	}
	ev := m.snapshotLocked()
	m.mu.Unlock()
	m.emit(ev)
}

func (m *Machine) pollLocations(ctx context.Context) {
	m.acquireFix(ctx)
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.acquireFix(ctx)
		}
	}
}

// acquireFix stores the latest position. Failures are ignored: a stale or
// absent location degrades the distress message but never blocks dispatch.
func (m *Machine) acquireFix(ctx context.Context) {
	if m.locations == nil {
		return
	}
	loc, err := m.locations.Current(ctx)
	if err != nil {
		return
	}
	m.UpdateLocation(loc)
}

func (m *Machine) snapshotLocked() Event {
	logs := make([]models.DispatchLogEntry, len(m.logs))
	copy(logs, m.logs)
	return Event{
		SessionID: m.session.ID,
		State:     m.state,
		Countdown: m.countdown,
		Message:   m.message,
		Logs:      logs,
	}
}

func (m *Machine) emit(ev Event) {
	m.mu.Lock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()
	for _, obs := range observers {
		obs(ev)
	}
}
