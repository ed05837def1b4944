// Package metrics records bootstrap and estimation counters in Prometheus
// form. A Recorder owns a private registry so several runs in one process do
// not collide, and a nil *Recorder is a valid no-op.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "causalest"

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Recorder holds the metric families of one process or run.
type Recorder struct {
	registry *prometheus.Registry

	// iterations counts finished bootstrap iterations.
	// Labels: estimator, outcome (ok, failed)
	iterations *prometheus.CounterVec

	// retries counts bootstrap iterations redrawn after a failure.
	// Labels: estimator
	retries *prometheus.CounterVec

	// estimates counts point estimates and whole bootstrap runs.
	// Labels: estimator, outcome (ok, failed)
	estimates *prometheus.CounterVec

	// duration measures the time of a single estimator call.
	// Labels: estimator
	duration *prometheus.HistogramVec
}

// New returns a Recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		iterations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "iterations_total",
			Help:      "Total bootstrap iterations by outcome",
		}, []string{"estimator", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "retries_total",
			Help:      "Total bootstrap iterations redrawn after a failed estimate",
		}, []string{"estimator"}),
		estimates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "estimator",
			Name:      "runs_total",
			Help:      "Total point estimates and bootstrap runs by outcome",
		}, []string{"estimator", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "estimator",
			Name:      "duration_seconds",
			Help:      "Time of a single estimator call in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"estimator"}),
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Iteration records one bootstrap iteration and how long its estimate took.
func (r *Recorder) Iteration(estimator string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.iterations.WithLabelValues(estimator, outcome(err)).Inc()
	r.duration.WithLabelValues(estimator).Observe(elapsed.Seconds())
}

// Retry records a redrawn bootstrap iteration.
func (r *Recorder) Retry(estimator string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(estimator).Inc()
}

// Run records a finished point estimate or bootstrap run.
func (r *Recorder) Run(estimator string, err error) {
	if r == nil {
		return
	}
	r.estimates.WithLabelValues(estimator, outcome(err)).Inc()
}

// WriteTextfile writes the registry in the Prometheus text format, the way
// node_exporter's textfile collector expects it.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}
