package session

import (
	"context"
	"sync"
	"time"

	"pieza-web/internal/model"
)

// Snapshot is the persisted form of a session. The in-flight flag is not part of it.
type Snapshot struct {
	Results                []model.Product `json:"results"`
	History                []string        `json:"history"`
	HasSearchedAtLeastOnce bool            `json:"has_searched"`
	LastCallFailed         bool            `json:"last_call_failed"`
}

// SnapshotOf captures s for persistence.
func SnapshotOf(s State) Snapshot {
	s = s.clone()
	return Snapshot{
		Results:                s.Results,
		History:                s.History,
		HasSearchedAtLeastOnce: s.HasSearchedAtLeastOnce,
		LastCallFailed:         s.LastCallFailed,
	}
}

// State rebuilds a session value from the snapshot.
func (s Snapshot) State() State {
	return State{
		Results:                s.Results,
		History:                s.History,
		HasSearchedAtLeastOnce: s.HasSearchedAtLeastOnce,
		LastCallFailed:         s.LastCallFailed,
	}.clone()
}

// Store persists session snapshots between controller lifetimes.
// Load returns (nil, nil) when nothing is stored for id.
type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, id string, snap Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time // zero: never
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, nil
	}
	snap := SnapshotOf(e.snap.State())
	return &snap, nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, snap Snapshot, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{snap: SnapshotOf(snap.State())}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[id] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}
