package emergency

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"guardian-service/internal/models"
)

// ErrSessionActive is returned when a trigger arrives while a session is
// already running. At most one active session exists per client.
var ErrSessionActive = errors.New("an emergency session is already active")

// ErrNoSession is returned by operations that need an active session.
var ErrNoSession = errors.New("no active emergency session")

// ContactSource loads the contact list used for fan-out.
type ContactSource interface {
	GetContactsByUserID(ctx context.Context, userID int64) ([]models.Contact, error)
}

// TrackingReader looks up the latest published position for a session code,
// letting an emergency session follow the device's own tracking feed.
type TrackingReader interface {
	Fetch(ctx context.Context, sessionID string) (models.TrackingRecord, error)
}

// Manager owns the single active Machine and wires collaborator
// dependencies into each new session.
type Manager struct {
	contacts   ContactSource
	trackings  TrackingReader
	dispatcher Dispatcher
	composer   Composer
	logger     *logrus.Logger

	countdownSeconds int
	locationPoll     time.Duration

	mu     sync.Mutex
	active *Machine

	observers []Observer
}

func NewManager(contacts ContactSource, trackings TrackingReader, dispatcher Dispatcher, composer Composer, countdownSeconds int, locationPoll time.Duration, logger *logrus.Logger) *Manager {
	return &Manager{
		contacts:         contacts,
		trackings:        trackings,
		dispatcher:       dispatcher,
		composer:         composer,
		countdownSeconds: countdownSeconds,
		locationPoll:     locationPoll,
		logger:           logger,
	}
}

// Subscribe registers an observer attached to every future session.
func (mgr *Manager) Subscribe(obs Observer) {
	mgr.observers = append(mgr.observers, obs)
}

// Trigger arms a new emergency session for the user. trackingCode, when
// non-empty, makes the session poll the live-tracking feed for position
// fixes.
func (mgr *Manager) Trigger(ctx context.Context, userID int64, displayName, reason, trackingCode string) (*Machine, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if cur := mgr.active; cur != nil {
		snap := cur.Snapshot()
		if snap.State == StateArmed || snap.State == StateDispatching {
			return nil, ErrSessionActive
		}
		// A finished session keeps polling until told otherwise; end it
		// before the replacement takes over.
		cur.Stop()
	}

	contacts, err := mgr.contacts.GetContactsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var source LocationSource
	if trackingCode != "" && mgr.trackings != nil {
		code := trackingCode
		source = LocationFunc(func(ctx context.Context) (models.LocationSnapshot, error) {
			rec, err := mgr.trackings.Fetch(ctx, code)
			if err != nil {
				return models.LocationSnapshot{}, err
			}
			return trackingToSnapshot(rec), nil
		})
	}

	if displayName == "" {
		displayName = "Guardian User"
	}

	m := NewMachine(MachineConfig{
		DisplayName:      displayName,
		Reason:           reason,
		CountdownSeconds: mgr.countdownSeconds,
		LocationPoll:     mgr.locationPoll,
		Contacts:         contacts,
		Dispatcher:       mgr.dispatcher,
		Composer:         mgr.composer,
		Locations:        source,
		Logger:           mgr.logger,
	})
	for _, obs := range mgr.observers {
		m.Subscribe(obs)
	}

	mgr.active = m
	m.Start(context.WithoutCancel(ctx))
	mgr.logger.Infof("Emergency session %s armed for user %d (reason=%q)", m.SessionID(), userID, reason)
	return m, nil
}

// Cancel aborts the active countdown, if any.
func (mgr *Manager) Cancel() error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m := mgr.active
	if m == nil {
		return ErrNoSession
	}
	if !m.Cancel() {
		return errors.New("dispatch already started")
	}
	mgr.active = nil
	return nil
}

// Stop ends the active session's tracking. In-flight sends still run to
// completion.
func (mgr *Manager) Stop() error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m := mgr.active
	if m == nil {
		return ErrNoSession
	}
	m.Stop()
	mgr.active = nil
	return nil
}

// Status reports the active session snapshot.
func (mgr *Manager) Status() (Event, bool) {
	mgr.mu.Lock()
	m := mgr.active
	mgr.mu.Unlock()
	if m == nil {
		return Event{}, false
	}
	return m.Snapshot(), true
}

// ReportLocation pushes a client-supplied fix onto the active session.
func (mgr *Manager) ReportLocation(loc models.LocationSnapshot) error {
	mgr.mu.Lock()
	m := mgr.active
	mgr.mu.Unlock()
	if m == nil {
		return ErrNoSession
	}
	m.UpdateLocation(loc)
	return nil
}

func trackingToSnapshot(rec models.TrackingRecord) models.LocationSnapshot {
	speed := rec.SpeedKmh / 3.6 // km/h back to m/s
	snap := models.LocationSnapshot{
		Latitude:  rec.Lat,
		Longitude: rec.Lng,
		Accuracy:  rec.Accuracy,
		Timestamp: rec.UpdatedAt,
		Speed:     &speed,
	}
	if rec.Battery != nil {
		level := *rec.Battery / 100
		snap.BatteryLevel = &level
	}
	if rec.Network != nil {
		snap.NetworkType = *rec.Network
	}
	return snap
}
