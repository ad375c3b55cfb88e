package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Termination outcomes recorded in the outcome label.
const (
	outcomeDone      = "done"
	outcomeGone      = "gone"
	outcomeEscalated = "escalated"
	outcomeFailed    = "failed"
)

// Metrics holds the controller's Prometheus collectors.
type Metrics struct {
	refreshTotal    prometheus.Counter
	refreshFailures prometheus.Counter
	refreshDuration prometheus.Histogram
	processes       prometheus.Gauge
	terminations    *prometheus.CounterVec
}

// NewMetrics registers the controller collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		refreshTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskman_refresh_total",
			Help: "Total number of process table refreshes",
		}),
		refreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskman_refresh_failures_total",
			Help: "Refreshes where the process listing could not be obtained",
		}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskman_refresh_duration_seconds",
			Help:    "Duration of process table refreshes in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		processes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "taskman_processes",
			Help: "Number of processes in the current snapshot",
		}),
		terminations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskman_terminations_total",
				Help: "Terminate requests by final outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) recordRefresh(d time.Duration, size int, failed bool) {
	if m == nil {
		return
	}
	m.refreshTotal.Inc()
	if failed {
		m.refreshFailures.Inc()
	}
	m.refreshDuration.Observe(d.Seconds())
	m.processes.Set(float64(size))
}

func (m *Metrics) recordTermination(outcome string) {
	if m == nil {
		return
	}
	m.terminations.WithLabelValues(outcome).Inc()
}
