package debounce

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

// fakeClock fires due timers on their own goroutine when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clk     *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		go t.fn()
	}
}

type call struct {
	req   storefrontx.SearchRequest
	ctx   context.Context
	reply chan reply
}

type reply struct {
	res *storefrontx.Results
	err error
}

// blockingBackend hands every call to the test and waits for its reply,
// ignoring cancellation like a fetch without an abort signal.
type blockingBackend struct {
	calls chan call
}

func newBlockingBackend() *blockingBackend {
	return &blockingBackend{calls: make(chan call, 8)}
}

func (b *blockingBackend) Search(ctx context.Context, req storefrontx.SearchRequest) (*storefrontx.Results, error) {
	c := call{req: req, ctx: ctx, reply: make(chan reply, 1)}
	b.calls <- c
	r := <-c.reply
	return r.res, r.err
}

func results(query string, ids ...string) *storefrontx.Results {
	res := &storefrontx.Results{Query: query, Total: int64(len(ids))}
	for _, id := range ids {
		res.Products = append(res.Products, storefrontx.Product{ID: id})
	}
	return res
}

func waitCall(t *testing.T, b *blockingBackend) call {
	t.Helper()
	select {
	case c := <-b.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for backend call")
		return call{}
	}
}

func waitSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func waitCounter(t *testing.T, c prometheus.Counter, want float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(c) == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("counter stayed at %v, want %v", testutil.ToFloat64(c), want)
}

func newTestSearcher(t *testing.T, backend storefrontx.Searcher, clk Clock) (*Searcher, chan Snapshot) {
	t.Helper()
	snaps := make(chan Snapshot, 8)
	s, err := New(backend,
		WithClock(clk),
		WithWindow(300*time.Millisecond),
		WithRegisterer(prometheus.NewRegistry()),
		WithOnResult(func(s Snapshot) { snaps <- s }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s, snaps
}

func TestSearcher_CoalescesInputWithinWindow(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	s.SetQuery("cas")
	clk.Advance(50 * time.Millisecond)
	s.SetQuery("casque")

	if got := s.State(); got != StatePending {
		t.Fatalf("Expected pending state, got %s", got)
	}

	// The first window would have ended at 300ms; only the second one fires.
	clk.Advance(260 * time.Millisecond)
	select {
	case c := <-backend.calls:
		t.Fatalf("Unexpected call before quiescence: %+v", c.req)
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(40 * time.Millisecond)
	c := waitCall(t, backend)
	if c.req.Query != "casque" {
		t.Errorf("Expected latest snapshot 'casque', got %q", c.req.Query)
	}
	c.reply <- reply{res: results("casque", "p1")}

	snap := waitSnapshot(t, snaps)
	if snap.Results.Len() != 1 || snap.Request.Query != "casque" {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}

	select {
	case c := <-backend.calls:
		t.Fatalf("Expected exactly one call, got another: %+v", c.req)
	default:
	}
	if got := testutil.ToFloat64(s.metrics.issued); got != 1 {
		t.Errorf("Expected 1 issued request, got %v", got)
	}
}

func TestSearcher_DropsStaleResponse(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	s.SetQuery("casque")
	clk.Advance(300 * time.Millisecond)
	first := waitCall(t, backend)

	s.SetQuery("casque sony")
	if first.ctx.Err() == nil {
		t.Error("Expected the superseded request context to be canceled")
	}
	clk.Advance(300 * time.Millisecond)
	second := waitCall(t, backend)

	second.reply <- reply{res: results("casque sony", "sony-1")}
	snap := waitSnapshot(t, snaps)
	if snap.Request.Query != "casque sony" {
		t.Fatalf("Expected second request committed, got %q", snap.Request.Query)
	}

	// The first response lands last and must not overwrite the second.
	first.reply <- reply{res: results("casque", "a", "b", "c")}
	waitCounter(t, s.metrics.stale, 1)

	latest := s.Latest()
	if latest.Request.Query != "casque sony" || latest.Results.Len() != 1 {
		t.Errorf("Stale response leaked into latest snapshot: %+v", latest)
	}
	if latest.State != StateIdle {
		t.Errorf("Expected idle state, got %s", latest.State)
	}
	select {
	case extra := <-snaps:
		t.Errorf("Unexpected extra snapshot delivered: %+v", extra)
	default:
	}
}

func TestSearcher_FailureCommitsEmptyResult(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	s.SetQuery("casque")
	clk.Advance(300 * time.Millisecond)
	c := waitCall(t, backend)
	c.reply <- reply{err: errors.WithSecondaryError(storefrontx.ErrTransport, errors.New("connection refused"))}

	snap := waitSnapshot(t, snaps)
	if snap.Results == nil || snap.Results.Len() != 0 {
		t.Errorf("Expected empty results, got %+v", snap.Results)
	}
	if !errors.Is(snap.Err, storefrontx.ErrTransport) {
		t.Errorf("Expected transport error kept on snapshot, got %v", snap.Err)
	}
	if got := testutil.ToFloat64(s.metrics.failed); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}
}

func TestSearcher_BlankInputClearsWithoutRequest(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	s.SetQuery("cas")
	s.SetQuery("   ")

	snap := waitSnapshot(t, snaps)
	if snap.Results.Len() != 0 || snap.State != StateIdle {
		t.Errorf("Expected immediate empty idle snapshot, got %+v", snap)
	}

	clk.Advance(time.Second)
	select {
	case c := <-backend.calls:
		t.Fatalf("Unexpected backend call: %+v", c.req)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSearcher_FiltersAloneTriggerSearch(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	filters := storefrontx.NewFilters(storefrontx.Criteria{})
	filters.OnChange(s.SetCriteria)
	filters.Toggle(storefrontx.FieldCategories, "Casque")
	filters.SetSort(storefrontx.SortPriceAsc)

	clk.Advance(300 * time.Millisecond)
	c := waitCall(t, backend)
	want := storefrontx.Criteria{Categories: []string{"Casque"}, SortBy: storefrontx.SortPriceAsc}
	if !c.req.Criteria.Equal(want) {
		t.Errorf("Expected criteria %+v, got %+v", want, c.req.Criteria)
	}
	c.reply <- reply{res: results("", "p1", "p2")}

	if snap := waitSnapshot(t, snaps); snap.Results.Len() != 2 {
		t.Errorf("Expected 2 products, got %d", snap.Results.Len())
	}
}

func TestSearcher_InvalidCriteriaSkipRequest(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	lo, hi := decimal.NewFromInt(100), decimal.NewFromInt(10)
	s.SetCriteria(storefrontx.Criteria{MinPrice: &lo, MaxPrice: &hi})

	snap := waitSnapshot(t, snaps)
	if !errors.Is(snap.Err, storefrontx.ErrInvalidCriteria) {
		t.Errorf("Expected ErrInvalidCriteria, got %v", snap.Err)
	}

	clk.Advance(time.Second)
	select {
	case c := <-backend.calls:
		t.Fatalf("Unexpected backend call: %+v", c.req)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSearcher_Flush(t *testing.T) {
	var calls int
	backend := storefrontx.SearcherFunc(func(ctx context.Context, req storefrontx.SearchRequest) (*storefrontx.Results, error) {
		calls++
		return results(req.Query, "p1"), nil
	})
	s, _ := newTestSearcher(t, backend, &fakeClock{})

	s.Flush()
	if calls != 0 {
		t.Fatalf("Flush without pending window should not search, got %d calls", calls)
	}

	s.SetQuery("casque")
	s.Flush()
	if calls != 1 {
		t.Fatalf("Expected 1 call after flush, got %d", calls)
	}
	if latest := s.Latest(); latest.Results.Len() != 1 || latest.State != StateIdle {
		t.Errorf("Unexpected snapshot after flush: %+v", latest)
	}
}

func TestSearcher_CloseDropsInFlight(t *testing.T) {
	clk := &fakeClock{}
	backend := newBlockingBackend()
	s, snaps := newTestSearcher(t, backend, clk)

	s.SetQuery("casque")
	clk.Advance(300 * time.Millisecond)
	c := waitCall(t, backend)

	s.Close()
	if c.ctx.Err() == nil {
		t.Error("Expected in-flight context canceled on Close")
	}
	c.reply <- reply{res: results("casque", "p1")}
	waitCounter(t, s.metrics.stale, 1)

	select {
	case snap := <-snaps:
		t.Errorf("Unexpected snapshot after Close: %+v", snap)
	default:
	}

	s.SetQuery("ignored")
	if got := s.State(); got != StateIdle {
		t.Errorf("Expected idle after Close, got %s", got)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateIdle:     "idle",
		StatePending:  "pending",
		StateInFlight: "in_flight",
		State(42):     "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}
