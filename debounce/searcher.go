// Package debounce issues catalog searches once input has been quiescent for
// a window and publishes only the result of the latest issued request.
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/letmevibethatforyou/storefrontx"
)

// State is the lifecycle state of a Searcher.
type State int

const (
	// StateIdle means no search is pending or running.
	StateIdle State = iota
	// StatePending means a debounce window is running.
	StatePending
	// StateInFlight means a request has been issued and has not settled.
	StateInFlight
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	default:
		return "unknown"
	}
}

// Clock schedules callbacks. *time.Timer satisfies Timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Snapshot is the latest committed search outcome.
type Snapshot struct {
	// Generation identifies the request the snapshot belongs to.
	Generation uint64
	Request    storefrontx.SearchRequest
	// Results is never nil once something has been committed.
	Results *storefrontx.Results
	// Err holds the failure that produced an empty result, if any.
	Err   error
	State State
}

// Searcher debounces search input in front of a storefrontx.Searcher.
//
// Every mutation bumps a generation counter. A response is committed only if
// its generation is still the current one when it arrives, so a slow early
// response can never overwrite a later one.
type Searcher struct {
	backend storefrontx.Searcher
	window  time.Duration
	clock   Clock
	logger  *slog.Logger
	notify  func(Snapshot)
	metrics *metrics

	baseCtx context.Context
	stop    context.CancelFunc

	mu     sync.Mutex
	gen    uint64
	req    storefrontx.SearchRequest
	state  State
	timer  Timer
	cancel context.CancelFunc
	latest Snapshot
	closed bool

	// notifyMu serializes callbacks; delivered is the highest generation handed out.
	notifyMu  sync.Mutex
	delivered uint64
}

// New creates a debounced searcher in front of backend.
func New(backend storefrontx.Searcher, opts ...Option) (*Searcher, error) {
	cfg := &config{
		window:  DefaultWindow,
		clock:   wallClock{},
		baseCtx: context.Background(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	m, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(cfg.baseCtx)
	return &Searcher{
		backend: backend,
		window:  cfg.window,
		clock:   cfg.clock,
		logger:  cfg.logger,
		notify:  cfg.onResult,
		metrics: m,
		baseCtx: ctx,
		stop:    stop,
	}, nil
}

// SetQuery replaces the query text and restarts the debounce window.
func (s *Searcher) SetQuery(q string) {
	s.mu.Lock()
	req := s.req
	req.Query = q
	snap, ok := s.scheduleLocked(req)
	s.mu.Unlock()
	s.deliver(snap, ok)
}

// SetCriteria replaces the filter criteria and restarts the debounce window.
func (s *Searcher) SetCriteria(c storefrontx.Criteria) {
	s.mu.Lock()
	req := s.req
	req.Criteria = c
	snap, ok := s.scheduleLocked(req)
	s.mu.Unlock()
	s.deliver(snap, ok)
}

// Set replaces query and criteria together and restarts the debounce window.
func (s *Searcher) Set(req storefrontx.SearchRequest) {
	s.mu.Lock()
	snap, ok := s.scheduleLocked(req)
	s.mu.Unlock()
	s.deliver(snap, ok)
}

// Flush issues a pending search immediately instead of waiting for the
// window, and returns once it settled. It is a no-op unless a window is running.
func (s *Searcher) Flush() {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	gen := s.gen
	s.mu.Unlock()

	s.fire(gen)
}

// Latest returns the last committed snapshot with the current state.
func (s *Searcher) Latest() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.latest
	snap.State = s.state
	return snap
}

// State returns the current lifecycle state.
func (s *Searcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the pending window and cancels any in-flight request.
// Responses arriving afterwards are dropped.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.stop()
}

// scheduleLocked supersedes whatever is pending or in flight and starts a
// new window for req. Blank and invalid requests are settled immediately;
// their snapshot is returned for delivery once the lock is released.
func (s *Searcher) scheduleLocked(req storefrontx.SearchRequest) (Snapshot, bool) {
	if s.closed {
		return Snapshot{}, false
	}

	s.gen++
	s.req = storefrontx.SearchRequest{Query: req.Query, Criteria: req.Criteria.Clone()}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		// Advisory: the backend may ignore it, the generation check does not.
		s.cancel()
		s.cancel = nil
	}

	if s.req.IsBlank() {
		return s.commitLocked(storefrontx.EmptyResults(req.Query), nil), true
	}
	if err := s.req.Criteria.Validate(); err != nil {
		s.logger.Warn("search criteria rejected", "error", err)
		return s.commitLocked(storefrontx.EmptyResults(req.Query), err), true
	}

	gen := s.gen
	s.state = StatePending
	s.timer = s.clock.AfterFunc(s.window, func() { s.fire(gen) })
	return Snapshot{}, false
}

func (s *Searcher) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.state != StatePending {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.state = StateInFlight
	req := s.req
	s.mu.Unlock()

	s.metrics.issued.Inc()
	start := time.Now()
	res, err := s.backend.Search(ctx, req)
	cancel()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.metrics.stale.Inc()
		s.logger.Debug("dropping superseded search response",
			"generation", gen,
			"query", req.Query,
			"duration", time.Since(start),
		)
		return
	}
	s.cancel = nil
	if err != nil {
		s.metrics.failed.Inc()
		s.logger.Warn("search failed, showing empty results",
			"query", req.Query,
			"error", err,
		)
		res = storefrontx.EmptyResults(req.Query)
	} else if res == nil {
		res = storefrontx.EmptyResults(req.Query)
	}
	snap := s.commitLocked(res, err)
	s.mu.Unlock()

	s.deliver(snap, true)
}

func (s *Searcher) commitLocked(res *storefrontx.Results, err error) Snapshot {
	s.state = StateIdle
	s.latest = Snapshot{
		Generation: s.gen,
		Request:    s.req,
		Results:    res,
		Err:        err,
		State:      StateIdle,
	}
	s.metrics.committed.Inc()
	return s.latest
}

// deliver hands snap to the callback unless a newer one was delivered already.
func (s *Searcher) deliver(snap Snapshot, ok bool) {
	if !ok || s.notify == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Generation <= s.delivered {
		return
	}
	s.delivered = snap.Generation
	s.notify(snap)
}
