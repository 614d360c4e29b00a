package debounce

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultWindow is the quiescence window used when none is configured.
const DefaultWindow = 300 * time.Millisecond

// Option configures a Searcher.
type Option interface {
	apply(*config)
}

// optionFunc is a function that implements Option.
type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	window     time.Duration
	clock      Clock
	logger     *slog.Logger
	onResult   func(Snapshot)
	registerer prometheus.Registerer
	baseCtx    context.Context
}

// WithWindow sets how long input must stay unchanged before a search is issued.
// Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return optionFunc(func(c *config) {
		if d > 0 {
			c.window = d
		}
	})
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clk Clock) Option {
	return optionFunc(func(c *config) {
		c.clock = clk
	})
}

// WithLogger sets the logger used for failures and dropped responses.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) {
		c.logger = l
	})
}

// WithOnResult registers a callback receiving every committed snapshot.
// It runs on the goroutine that committed the result, without locks held.
func WithOnResult(fn func(Snapshot)) Option {
	return optionFunc(func(c *config) {
		c.onResult = fn
	})
}

// WithRegisterer enables prometheus counters registered on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return optionFunc(func(c *config) {
		c.registerer = reg
	})
}

// WithBaseContext sets the parent context of every issued request.
// Canceling it aborts in-flight requests.
func WithBaseContext(ctx context.Context) Option {
	return optionFunc(func(c *config) {
		c.baseCtx = ctx
	})
}
