package tracking

import (
	"context"
	"sync"

	"guardian-service/internal/db"
	"guardian-service/internal/models"
)

// MemoryStore is an in-process Store for tests and single-node development
// runs. Overwrites preserve CreatedAt the same way the SQL upsert does.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]models.TrackingRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]models.TrackingRecord)}
}

func (m *MemoryStore) UpsertTracking(_ context.Context, rec models.TrackingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.recs[rec.SessionID]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	m.recs[rec.SessionID] = rec
	return nil
}

func (m *MemoryStore) GetTracking(_ context.Context, sessionID string) (models.TrackingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[sessionID]
	if !ok {
		return models.TrackingRecord{}, db.ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) DeleteTrackingOlderThan(_ context.Context, cutoff int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.recs {
		if rec.UpdatedAt < cutoff {
			delete(m.recs, id)
			n++
		}
	}
	return n, nil
}
