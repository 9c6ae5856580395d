package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"pieza-web/internal/logging"
)

const (
	DefaultCapacity = 10000
	DefaultTTL      = 24 * time.Hour
)

// ManagerConfig sizes the live controller cache and bounds each search call.
type ManagerConfig struct {
	Capacity      int
	TTL           time.Duration
	SearchTimeout time.Duration
}

// Manager maps session ids to live controllers and persists their state after
// every action. Controllers evicted from the cache are rebuilt from the store.
type Manager struct {
	searcher Searcher
	store    Store
	observer Observer
	logger   *slog.Logger
	cfg      ManagerConfig

	mu     sync.Mutex // guards live and pinned
	live   *expirable.LRU[string, *Controller]
	pinned map[string]*pin // controllers with an action running, kept past eviction
}

type pin struct {
	c *Controller
	n int
}

// NewManager wires searcher and store. observer and logger may be nil.
func NewManager(searcher Searcher, store Store, observer Observer, logger *slog.Logger, cfg ManagerConfig) *Manager {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		searcher: searcher,
		store:    store,
		observer: observer,
		logger:   logging.OrDiscard(logger),
		cfg:      cfg,
		live:     expirable.NewLRU[string, *Controller](cfg.Capacity, nil, cfg.TTL),
		pinned:   make(map[string]*pin),
	}
}

func (m *Manager) controller(ctx context.Context, id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookupLocked(ctx, id)
}

// lookupLocked returns the controller for id: a pinned one first, then the cached
// one, else a new one hydrated from the store.
func (m *Manager) lookupLocked(ctx context.Context, id string) (*Controller, error) {
	if p, ok := m.pinned[id]; ok {
		m.live.Add(id, p.c)
		return p.c, nil
	}
	if c, ok := m.live.Get(id); ok {
		m.live.Add(id, c) // refresh expiry
		return c, nil
	}

	opts := []ControllerOption{WithLogger(m.logger), WithTimeout(m.cfg.SearchTimeout)}
	if m.observer != nil {
		opts = append(opts, WithObserver(m.observer))
	}
	c := NewController(id, m.searcher, opts...)

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if snap != nil {
		c.Restore(snap.State())
		m.logger.Debug("session restored", "session", id, "history", len(snap.History))
	}
	m.live.Add(id, c)
	return c, nil
}

// acquire returns the controller for id pinned until release is called, so an
// eviction during a running call cannot start a second controller for the session.
func (m *Manager) acquire(ctx context.Context, id string) (*Controller, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.lookupLocked(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	p, ok := m.pinned[id]
	if !ok {
		p = &pin{c: c}
		m.pinned[id] = p
	}
	p.n++
	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		p.n--
		if p.n == 0 && m.pinned[id] == p {
			delete(m.pinned, id)
		}
	}
	return c, release, nil
}

// current reports whether c is still the controller serving id.
func (m *Manager) current(id string, c *Controller) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pinned[id]; ok && p.c == c {
		return true
	}
	live, ok := m.live.Peek(id)
	return ok && live == c
}

// Submit runs a query for session id. An empty mode picks refine when the session
// has results. The call is detached from ctx cancellation and bounded by the
// configured search timeout instead.
func (m *Manager) Submit(ctx context.Context, id, text string, mode Mode) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	c, release, err := m.acquire(ctx, id)
	if err != nil {
		return "", err
	}
	defer release()
	if mode == "" {
		mode = c.NextMode()
	}
	outcome := c.SubmitQuery(ctx, text, mode)
	if !outcome.Accepted() {
		return outcome, nil
	}
	return outcome, m.save(ctx, c)
}

// StartOver resets session id.
func (m *Manager) StartOver(ctx context.Context, id string) error {
	c, release, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	c.StartOver()
	return m.save(ctx, c)
}

// View returns the render state for session id. Unknown ids yield the initial view.
func (m *Manager) View(ctx context.Context, id string) (View, error) {
	c, err := m.controller(ctx, id)
	if err != nil {
		return View{}, err
	}
	return c.View(), nil
}

// Drop tears down session id and removes its stored snapshot. A call still
// running for it finishes without persisting.
func (m *Manager) Drop(ctx context.Context, id string) error {
	m.mu.Lock()
	m.live.Remove(id)
	delete(m.pinned, id)
	m.mu.Unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Live reports how many controllers are cached.
func (m *Manager) Live() int {
	return m.live.Len()
}

// save persists c unless the session was dropped while c was working.
func (m *Manager) save(ctx context.Context, c *Controller) error {
	if !m.current(c.ID(), c) {
		m.logger.Debug("session dropped, skipping save", "session", c.ID())
		return nil
	}
	if err := m.store.Save(ctx, c.ID(), SnapshotOf(c.State()), m.cfg.TTL); err != nil {
		m.logger.Error("failed to persist session", "session", c.ID(), "error", err)
		return fmt.Errorf("save session %s: %w", c.ID(), err)
	}
	return nil
}
