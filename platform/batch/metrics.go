package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	reg prometheus.Registerer

	calls       prometheus.Counter
	rows        prometheus.Counter
	rowFailures *prometheus.CounterVec
	duration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, name string) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"function": name}
	return &metrics{
		reg: reg,
		calls: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_calls_total",
			Help:        "Number of batch evaluation calls.",
			ConstLabels: labels,
		}),
		rows: factory.NewCounter(prometheus.CounterOpts{
			Name:        "evalexpr_rows_total",
			Help:        "Number of rows evaluated.",
			ConstLabels: labels,
		}),
		rowFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "evalexpr_row_failures_total",
			Help:        "Number of rows that produced an error record, by error kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "evalexpr_call_duration_seconds",
			Help:        "Wall-clock duration of batch evaluation calls.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

func (m *metrics) unregister() {
	for _, c := range []prometheus.Collector{m.calls, m.rows, m.rowFailures, m.duration} {
		m.reg.Unregister(c)
	}
}
