// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guttosm/fiscalpulse/internal/ingestion"
)

// Metrics bundles pipeline metrics. It implements ingestion.Sink.
type Metrics struct {
	FilesTotal        prometheus.Counter
	FragmentsTotal    *prometheus.CounterVec
	TransactionsTotal *prometheus.CounterVec
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
}

// New constructs metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fiscalpulse_files_total",
			Help: "Total export files processed",
		}),
		FragmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fiscalpulse_fragments_total",
				Help: "Total containers by parse result",
			},
			[]string{"result"},
		),
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fiscalpulse_transactions_total",
				Help: "Total checks absorbed by kind",
			},
			[]string{"kind"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fiscalpulse_runs_total",
				Help: "Total completed runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fiscalpulse_run_duration_seconds",
			Help:    "Run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.FilesTotal,
		m.FragmentsTotal,
		m.TransactionsTotal,
		m.RunsTotal,
		m.RunDuration,
	)
	return m
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default returns the process-wide metrics registered with the default registry.
func Default() *Metrics {
	defaultOnce.Do(func() { defaultM = New(prometheus.DefaultRegisterer) })
	return defaultM
}

// Publish updates counters from run progress.
func (m *Metrics) Publish(e ingestion.Event) {
	switch e.Type {
	case ingestion.EventFileDone:
		m.FilesTotal.Inc()
		m.FragmentsTotal.WithLabelValues("ok").Add(float64(e.Fragments - e.Malformed))
		m.FragmentsTotal.WithLabelValues("malformed").Add(float64(e.Malformed))
		m.TransactionsTotal.WithLabelValues("sale").Add(float64(e.Sales))
		m.TransactionsTotal.WithLabelValues("return").Add(float64(e.Returns))
	case ingestion.EventRunDone:
		m.RunsTotal.WithLabelValues(string(e.Status)).Inc()
		m.RunDuration.Observe(e.Elapsed.Seconds())
	}
}
