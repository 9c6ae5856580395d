package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pieza-web/internal/model"
)

type fakeSearcher struct {
	mu       sync.Mutex
	queries  []string
	listings []model.Listing
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type blockingSearcher struct {
	started  chan string
	release  chan struct{}
	listings []model.Listing
	err      error
}

func newBlockingSearcher(listings []model.Listing, err error) *blockingSearcher {
	return &blockingSearcher{
		started:  make(chan string, 1),
		release:  make(chan struct{}),
		listings: listings,
		err:      err,
	}
}

func (b *blockingSearcher) Search(_ context.Context, query string) ([]model.Listing, error) {
	b.started <- query
	<-b.release
	return b.listings, b.err
}

type recordingObserver struct {
	mu      sync.Mutex
	events  []model.SearchCompleted
	started []string
}

func (r *recordingObserver) Observe(_ context.Context, evt model.SearchCompleted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingObserver) SearchStarted(_ context.Context, _, mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, mode)
}

func listing(id, title string, price float64) model.Listing {
	return model.Listing{
		ItemID:       id,
		Title:        title,
		Price:        price,
		Currency:     "USD",
		ItemURL:      "https://ebay.com/itm/" + id,
		SellerRating: 99,
	}
}

func ids(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestInitialState(t *testing.T) {
	c := NewController("s1", &fakeSearcher{})
	s := c.State()
	assert.Empty(t, s.Results)
	assert.NotNil(t, s.Results)
	assert.Empty(t, s.History)
	assert.False(t, s.IsSearching)
	assert.False(t, s.HasSearchedAtLeastOnce)
	assert.Equal(t, ModeSearch, c.NextMode())
}

func TestSubmitEmptyQueryIsNoOp(t *testing.T) {
	fs := &fakeSearcher{}
	c := NewController("s1", fs)

	for _, text := range []string{"", "   ", "\t\n"} {
		assert.Equal(t, OutcomeRejected, c.SubmitQuery(context.Background(), text, ModeSearch))
	}
	assert.Empty(t, fs.calls())
	assert.Equal(t, emptyState(), c.State())
}

func TestSubmitSuccessReplacesResults(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{
		listing("3", "Velvet Sofa", 900),
		listing("1", "Oak Chair", 120),
		listing("2", "Walnut Desk", 450),
	}}
	c := NewController("s1", fs)

	out := c.SubmitQuery(context.Background(), "  velvet sofa  ", ModeSearch)
	require.Equal(t, OutcomeSucceeded, out)

	s := c.State()
	assert.Equal(t, []string{"3", "1", "2"}, ids(s.Results), "API order is kept")
	assert.Equal(t, []string{"velvet sofa"}, s.History)
	assert.Equal(t, []string{"velvet sofa"}, fs.calls())
	assert.True(t, s.HasSearchedAtLeastOnce)
	assert.False(t, s.IsSearching)
	assert.False(t, s.LastCallFailed)
	assert.Equal(t, ModeRefine, c.NextMode())

	fs.listings = []model.Listing{listing("9", "Dark Velvet Sofa", 950)}
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "darker", ModeRefine))
	s = c.State()
	assert.Equal(t, []string{"9"}, ids(s.Results))
	assert.Equal(t, []string{"velvet sofa", "darker"}, s.History)
	assert.Equal(t, []string{"velvet sofa", "darker"}, fs.calls(), "refine sends only the latest text")
}

func TestSubmitEmptyResponseClearsResults(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{listing("1", "Oak Chair", 120)}}
	c := NewController("s1", fs)
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "chair", ModeSearch))

	fs.listings = nil
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "hovercraft", ModeRefine))
	s := c.State()
	assert.Empty(t, s.Results)
	assert.True(t, s.HasSearchedAtLeastOnce)
	assert.Equal(t, ModeSearch, c.NextMode())
}

func TestSubmitFailureKeepsResults(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{listing("1", "Oak Chair", 120)}}
	c := NewController("s1", fs)
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "chair", ModeSearch))

	fs.err = errors.New("connection refused")
	require.Equal(t, OutcomeFailed, c.SubmitQuery(context.Background(), "taller", ModeRefine))

	s := c.State()
	assert.Equal(t, []string{"1"}, ids(s.Results))
	assert.Equal(t, []string{"chair", "taller"}, s.History, "failed queries stay in history")
	assert.False(t, s.IsSearching)
	assert.True(t, s.LastCallFailed)

	fs.err = nil
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "oak", ModeRefine))
	assert.False(t, c.State().LastCallFailed)
}

func TestSubmitFailureOnFirstSearch(t *testing.T) {
	c := NewController("s1", &fakeSearcher{err: errors.New("boom")})
	require.Equal(t, OutcomeFailed, c.SubmitQuery(context.Background(), "sofa", ModeSearch))

	s := c.State()
	assert.Empty(t, s.Results)
	assert.True(t, s.HasSearchedAtLeastOnce)
	assert.Equal(t, []string{"sofa"}, s.History)
}

func TestSubmitWhileSearchingIsDropped(t *testing.T) {
	bs := newBlockingSearcher([]model.Listing{listing("1", "Oak Chair", 120)}, nil)
	c := NewController("s1", bs)

	done := make(chan Outcome, 1)
	go func() { done <- c.SubmitQuery(context.Background(), "chair", ModeSearch) }()
	assert.Equal(t, "chair", <-bs.started)

	s := c.State()
	assert.True(t, s.IsSearching)
	assert.Equal(t, []string{"chair"}, s.History, "history grows before the call returns")
	assert.Equal(t, "Searching...", c.View().SubmitLabel)

	assert.Equal(t, OutcomeBusy, c.SubmitQuery(context.Background(), "desk", ModeSearch))
	assert.Equal(t, []string{"chair"}, c.State().History)

	close(bs.release)
	assert.Equal(t, OutcomeSucceeded, <-done)
	s = c.State()
	assert.False(t, s.IsSearching)
	assert.Equal(t, []string{"1"}, ids(s.Results))
}

func TestStartOver(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{listing("1", "Oak Chair", 120)}}
	c := NewController("s1", fs)
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "chair", ModeSearch))

	c.StartOver()
	first := c.State()
	assert.Equal(t, emptyState(), first)

	c.StartOver()
	assert.Equal(t, first, c.State(), "start over is idempotent")
	assert.Equal(t, ModeSearch, c.NextMode())
}

func TestStartOverDiscardsLateResponse(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failure", errors.New("timeout")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bs := newBlockingSearcher([]model.Listing{listing("1", "Oak Chair", 120)}, tc.err)
			obs := &recordingObserver{}
			c := NewController("s1", bs, WithObserver(obs))

			done := make(chan Outcome, 1)
			go func() { done <- c.SubmitQuery(context.Background(), "chair", ModeSearch) }()
			<-bs.started

			c.StartOver()
			s := c.State()
			assert.True(t, s.IsSearching, "in-flight flag survives start over")
			assert.Empty(t, s.History)

			close(bs.release)
			assert.Equal(t, OutcomeDiscarded, <-done)

			s = c.State()
			assert.Equal(t, emptyState(), s)
			require.Len(t, obs.events, 1)
			assert.Equal(t, model.OutcomeDiscarded, obs.events[0].Outcome)
		})
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{listing("1", "Oak Chair", 120), listing("2", "Pine Chair", 80)}}
	obs := &recordingObserver{}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewController("s1", fs, WithObserver(obs), WithClock(func() time.Time { return now }))

	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(context.Background(), "chair", ModeSearch))
	fs.err = errors.New("502 bad gateway")
	require.Equal(t, OutcomeFailed, c.SubmitQuery(context.Background(), "pine", ModeRefine))
	c.SubmitQuery(context.Background(), " ", ModeRefine)

	require.Len(t, obs.events, 2, "rejected submissions are not reported")
	assert.Equal(t, []string{"search", "refine"}, obs.started)

	ok := obs.events[0]
	assert.Equal(t, "s1", ok.SessionID)
	assert.Equal(t, "chair", ok.Query)
	assert.Equal(t, "search", ok.Mode)
	assert.Equal(t, 2, ok.Results)
	assert.Equal(t, model.OutcomeSucceeded, ok.Outcome)
	assert.Equal(t, "2026-05-01T12:00:00Z", ok.Timestamp)

	failed := obs.events[1]
	assert.Equal(t, "refine", failed.Mode)
	assert.Equal(t, model.OutcomeFailed, failed.Outcome)
	assert.Equal(t, "502 bad gateway", failed.Error)
	assert.Zero(t, failed.Results)
}

type panickingSearcher struct{}

func (panickingSearcher) Search(context.Context, string) ([]model.Listing, error) {
	panic("nil map")
}

func TestSearcherPanicCountsAsFailure(t *testing.T) {
	c := NewController("s1", panickingSearcher{})
	assert.Equal(t, OutcomeFailed, c.SubmitQuery(context.Background(), "sofa", ModeSearch))
	s := c.State()
	assert.False(t, s.IsSearching)
	assert.True(t, s.LastCallFailed)
}

type slowSearcher struct{}

func (slowSearcher) Search(ctx context.Context, _ string) ([]model.Listing, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSearchTimeout(t *testing.T) {
	c := NewController("s1", slowSearcher{}, WithTimeout(20*time.Millisecond))
	assert.Equal(t, OutcomeFailed, c.SubmitQuery(context.Background(), "sofa", ModeSearch))
	assert.False(t, c.State().IsSearching)
}

func TestStateIsACopy(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{listing("1", "Oak Chair", 120)}}
	c := NewController("s1", fs)
	c.SubmitQuery(context.Background(), "chair", ModeSearch)

	s := c.State()
	s.History[0] = "mutated"
	s.Results[0].Name = "mutated"
	assert.Equal(t, "chair", c.State().History[0])
	assert.Equal(t, "Oak Chair", c.State().Results[0].Name)
}

func TestRestore(t *testing.T) {
	c := NewController("s1", &fakeSearcher{})
	c.Restore(State{
		Results:                []model.Product{{ID: "7", Name: "Teak Bench"}},
		History:                []string{"bench"},
		IsSearching:            true,
		HasSearchedAtLeastOnce: true,
	})
	s := c.State()
	assert.False(t, s.IsSearching, "in-flight flag is never restored")
	assert.Equal(t, []string{"7"}, ids(s.Results))
	assert.Equal(t, ModeRefine, c.NextMode())
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" Refine ")
	assert.True(t, ok)
	assert.Equal(t, ModeRefine, m)
	m, ok = ParseMode("search")
	assert.True(t, ok)
	assert.Equal(t, ModeSearch, m)
	_, ok = ParseMode("browse")
	assert.False(t, ok)
}

func TestSearchRefineStartOverFlow(t *testing.T) {
	fs := &fakeSearcher{listings: []model.Listing{
		listing("1", "Curved Velvet Sofa", 1299),
		listing("2", "Velvet Loveseat", 799),
	}}
	c := NewController("s1", fs)
	ctx := context.Background()

	require.Equal(t, ModeSearch, c.NextMode())
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(ctx, "curved velvet sofa", c.NextMode()))
	v := c.View()
	assert.Equal(t, "Top matches (2)", v.Heading)
	assert.Equal(t, ModeRefine, v.NextMode)
	assert.False(t, v.ShowHistory)

	fs.listings = []model.Listing{listing("3", "Charcoal Velvet Sofa", 1199)}
	require.Equal(t, OutcomeSucceeded, c.SubmitQuery(ctx, "darker colors", c.NextMode()))
	v = c.View()
	assert.Equal(t, []string{"3"}, ids(v.Results))
	assert.Equal(t, []string{"curved velvet sofa", "darker colors"}, v.History)
	assert.True(t, v.ShowHistory)
	assert.Equal(t, []string{"darker colors", "curved velvet sofa"}, v.RecentHistory)
	assert.Equal(t, []string{"curved velvet sofa", "darker colors"}, fs.calls())

	c.StartOver()
	s := c.State()
	assert.Empty(t, s.Results)
	assert.Empty(t, s.History)
	assert.False(t, s.IsSearching)
	assert.False(t, s.HasSearchedAtLeastOnce)
	v = c.View()
	assert.False(t, v.ShowResultsSection)
	assert.Equal(t, "Find furniture", v.SubmitLabel)
	assert.Equal(t, ModeSearch, c.NextMode())
}
