package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	reg prometheus.Registerer

	hits         prometheus.Counter
	misses       prometheus.Counter
	compilations prometheus.Counter
	failures     prometheus.Counter
	evictions    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, name string) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"function": name}
	return &metrics{
		reg: reg,
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_cache_hits_total",
			Help:        "Number of expression lookups served from the cache.",
			ConstLabels: labels,
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_cache_misses_total",
			Help:        "Number of expression lookups that were not cached.",
			ConstLabels: labels,
		}),
		compilations: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_compilations_total",
			Help:        "Number of expression compilations.",
			ConstLabels: labels,
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_compile_failures_total",
			Help:        "Number of compilations that failed.",
			ConstLabels: labels,
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_cache_evictions_total",
			Help:        "Number of compiled expressions evicted from the LRU cache.",
			ConstLabels: labels,
		}),
	}
}

// unregister removes the collectors from the registerer, so the same function
// name can be registered again.
func (m *metrics) unregister() {
	for _, c := range []prometheus.Collector{m.hits, m.misses, m.compilations, m.failures, m.evictions} {
		m.reg.Unregister(c)
	}
}
