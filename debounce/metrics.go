package debounce

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	issued    prometheus.Counter
	committed prometheus.Counter
	stale     prometheus.Counter
	failed    prometheus.Counter
}

// newMetrics builds the counters and registers them when reg is non-nil.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "search_preview",
			Name:      name,
			Help:      help,
		})
	}
	m := &metrics{
		issued:    counter("requests_issued_total", "Searches sent after the debounce window settled."),
		committed: counter("results_committed_total", "Results published as the latest snapshot."),
		stale:     counter("responses_stale_total", "Responses dropped because a newer request superseded them."),
		failed:    counter("requests_failed_total", "Searches that failed and committed an empty result."),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []*prometheus.Counter{&m.issued, &m.committed, &m.stale, &m.failed} {
		if err := registerOrReuse(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return errors.Newf("debounce: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return errors.Wrap(err, "debounce: register metric")
	}
	return nil
}
