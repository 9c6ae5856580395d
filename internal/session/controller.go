// Package session implements the query/refinement protocol behind the search page:
// one Controller per browsing flow owns the results, the query history and the
// in-flight flag, and a Manager maps session ids to live controllers.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pieza-web/internal/logging"
	"pieza-web/internal/model"
)

// Mode tells whether a submission is a first search or a refinement.
// It only labels the call; both modes send the same single-query request.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeRefine Mode = "refine"
)

// ParseMode accepts "search" and "refine" (case-insensitive).
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSearch:
		return ModeSearch, true
	case ModeRefine:
		return ModeRefine, true
	}
	return "", false
}

// Outcome reports what SubmitQuery did.
type Outcome string

const (
	// OutcomeRejected: the text was empty after trimming. Nothing changed.
	OutcomeRejected Outcome = "rejected"
	// OutcomeBusy: a call was already in flight. Nothing changed.
	OutcomeBusy Outcome = "busy"
	// OutcomeSucceeded: results were replaced by the response.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed: the call failed and results were left untouched.
	OutcomeFailed Outcome = "failed"
	// OutcomeDiscarded: StartOver ran while the call was in flight; the response was dropped.
	OutcomeDiscarded Outcome = "discarded"
)

// Accepted reports whether the submission reached the searcher.
func (o Outcome) Accepted() bool {
	return o != OutcomeRejected && o != OutcomeBusy
}

// Searcher is the remote search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.Listing, error)
}

// Observer is told about every finished search call. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, evt model.SearchCompleted)
}

// StartObserver is optionally implemented by observers that track calls in flight.
type StartObserver interface {
	SearchStarted(ctx context.Context, sessionID, mode string)
}

// State is the whole session value. Results keep API order; History keeps every
// attempted query in submission order.
type State struct {
	Results                []model.Product `json:"results"`
	History                []string        `json:"history"`
	IsSearching            bool            `json:"isSearching"`
	HasSearchedAtLeastOnce bool            `json:"hasSearchedAtLeastOnce"`
	LastCallFailed         bool            `json:"lastCallFailed"`
}

func emptyState() State {
	return State{Results: []model.Product{}, History: []string{}}
}

func (s State) clone() State {
	out := s
	out.Results = append(make([]model.Product, 0, len(s.Results)), s.Results...)
	out.History = append(make([]string, 0, len(s.History)), s.History...)
	return out
}

// HasResults is the flag callers use to pick refine over search.
func (s State) HasResults() bool {
	return len(s.Results) > 0
}

// Controller owns one session. All methods are safe for concurrent use; the
// searcher is called without holding the lock.
type Controller struct {
	id       string
	searcher Searcher
	observer Observer
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64 // bumped by StartOver so late responses are dropped
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithObserver reports finished calls to o.
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) { c.observer = o }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithTimeout bounds each searcher call. Zero means no extra bound.
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.timeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController returns a controller with an empty session.
func NewController(id string, searcher Searcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		id:       id,
		searcher: searcher,
		now:      time.Now,
		state:    emptyState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger).With("session", id)
	return c
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// SubmitQuery runs one search or refinement. Empty text and submissions made while
// a call is in flight are no-ops. The query is added to the history before the call
// is made; results change only when the call succeeds. Failures are logged and
// reported to the observer, never returned.
func (c *Controller) SubmitQuery(ctx context.Context, text string, mode Mode) Outcome {
	query := strings.TrimSpace(text)
	if query == "" {
		return OutcomeRejected
	}
	if mode == "" {
		mode = ModeSearch
	}

	c.mu.Lock()
	if c.state.IsSearching {
		c.mu.Unlock()
		c.logger.Debug("submission dropped, call in flight", "query", query)
		return OutcomeBusy
	}
	c.state.IsSearching = true
	c.state.HasSearchedAtLeastOnce = true
	c.state.LastCallFailed = false
	c.state.History = append(c.state.History, query)
	gen := c.generation
	c.mu.Unlock()

	if so, ok := c.observer.(StartObserver); ok {
		so.SearchStarted(ctx, c.id, string(mode))
	}

	start := c.now()
	listings, err := c.call(ctx, query)
	elapsed := c.now().Sub(start)

	c.mu.Lock()
	c.state.IsSearching = false
	var outcome Outcome
	switch {
	case gen != c.generation:
		outcome = OutcomeDiscarded
	case err != nil:
		outcome = OutcomeFailed
		c.state.LastCallFailed = true
	default:
		outcome = OutcomeSucceeded
		c.state.Results = model.ToProducts(listings)
	}
	c.mu.Unlock()

	c.report(ctx, query, mode, outcome, len(listings), err, start, elapsed)
	return outcome
}

// call invokes the searcher with the configured timeout. A panicking searcher is
// treated as a failed call so the in-flight flag is always cleared.
func (c *Controller) call(ctx context.Context, query string) (listings []model.Listing, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			listings, err = nil, fmt.Errorf("searcher panic: %v", r)
		}
	}()
	return c.searcher.Search(ctx, query)
}

func (c *Controller) report(ctx context.Context, query string, mode Mode, outcome Outcome, n int, err error, start time.Time, elapsed time.Duration) {
	evt := model.SearchCompleted{
		SessionID:      c.id,
		Query:          query,
		Mode:           string(mode),
		DurationMillis: elapsed.Milliseconds(),
		Timestamp:      start.UTC().Format(time.RFC3339Nano),
	}
	switch outcome {
	case OutcomeSucceeded:
		evt.Outcome = model.OutcomeSucceeded
		evt.Results = n
		c.logger.Info("search completed", "mode", mode, "query", query, "results", n, "elapsed", elapsed)
	case OutcomeFailed:
		evt.Outcome = model.OutcomeFailed
		evt.Error = err.Error()
		c.logger.Warn("search call failed", "mode", mode, "query", query, "error", err)
	case OutcomeDiscarded:
		evt.Outcome = model.OutcomeDiscarded
		if err != nil {
			evt.Error = err.Error()
		}
		c.logger.Info("late search response discarded after start over", "mode", mode, "query", query)
	}
	if c.observer != nil {
		c.observer.Observe(ctx, evt)
	}
}

// StartOver resets results, history and the searched flag. A call still in flight
// keeps the in-flight flag until it returns, and its response is discarded.
func (c *Controller) StartOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	searching := c.state.IsSearching
	c.state = emptyState()
	c.state.IsSearching = searching
	c.generation++
}

// State returns a copy of the current session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// View derives the render state from the current session.
func (c *Controller) View() View {
	return NewView(c.State())
}

// NextMode is refine when results exist, search otherwise.
func (c *Controller) NextMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.HasResults() {
		return ModeRefine
	}
	return ModeSearch
}

// Restore replaces the session with s. The in-flight flag is never restored and
// calls that are still running will be discarded.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	searching := c.state.IsSearching
	c.state = s.clone()
	if c.state.Results == nil {
		c.state.Results = []model.Product{}
	}
	if c.state.History == nil {
		c.state.History = []string{}
	}
	c.state.IsSearching = searching
	c.generation++
}
