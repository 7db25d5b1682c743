// Package metrics counts cache and source activity for one hemli invocation.
//
// Each invocation owns a private registry. When a textfile path is configured
// the registry is written in the node_exporter textfile collector format so a
// local exporter can pick the numbers up.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records hemli metrics. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	getTotal         *prometheus.CounterVec
	sourceExecutions *prometheus.CounterVec
	sourceDuration   *prometheus.HistogramVec
	storeOperations  *prometheus.CounterVec
	indexWrites      *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		getTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemli_get_total",
				Help: "Total number of get requests by outcome",
			},
			[]string{"outcome"},
		),
		sourceExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemli_source_executions_total",
				Help: "Total number of source command executions",
			},
			[]string{"mode", "status"},
		),
		sourceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hemli_source_duration_seconds",
				Help:    "Duration of source command executions in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"mode"},
		),
		storeOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemli_store_operations_total",
				Help: "Total number of credential store operations",
			},
			[]string{"op", "status"},
		),
		indexWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemli_index_writes_total",
				Help: "Total number of index file writes",
			},
			[]string{"status"},
		),
	}
}

// RecordGet counts a get request. outcome is one of hit, stale, miss,
// expired, forced.
func (r *Recorder) RecordGet(outcome string) {
	if r == nil {
		return
	}
	r.getTotal.WithLabelValues(outcome).Inc()
}

// RecordSource counts a source execution and its duration.
func (r *Recorder) RecordSource(mode string, err error, d time.Duration) {
	if r == nil {
		return
	}
	r.sourceExecutions.WithLabelValues(mode, status(err)).Inc()
	r.sourceDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordStore counts a credential store operation.
func (r *Recorder) RecordStore(op string, err error) {
	if r == nil {
		return
	}
	r.storeOperations.WithLabelValues(op, status(err)).Inc()
}

// RecordIndexWrite counts an index file write.
func (r *Recorder) RecordIndexWrite(err error) {
	if r == nil {
		return
	}
	r.indexWrites.WithLabelValues(status(err)).Inc()
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
