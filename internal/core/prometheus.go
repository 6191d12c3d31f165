package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"oceancurate/pkg/domain"
)

// PrometheusMetricsRecorder exports per-operation durations, result counters,
// and validation diagnostic counters through a Prometheus registry.
type PrometheusMetricsRecorder struct {
	durations    *prometheus.HistogramVec
	results      *prometheus.CounterVec
	diagnostics  *prometheus.CounterVec
	fatalReports *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the service collectors with reg and
// returns a recorder bound to them.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "oceancurate",
		Subsystem: "service",
		Name:      "operation_duration_seconds",
		Help:      "Wall-clock duration of curation service operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oceancurate",
		Subsystem: "service",
		Name:      "operation_results_total",
		Help:      "Curation service operation outcomes by status.",
	}, []string{"operation", "status"})
	diagnostics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oceancurate",
		Subsystem: "service",
		Name:      "diagnostics_total",
		Help:      "Validation diagnostics emitted, by operation and severity.",
	}, []string{"operation", "severity"})
	fatalReports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oceancurate",
		Subsystem: "service",
		Name:      "fatal_reports_total",
		Help:      "Validation reports that latched the fatal flag.",
	}, []string{"operation"})

	for _, collector := range []prometheus.Collector{durations, results, diagnostics, fatalReports} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return &PrometheusMetricsRecorder{
		durations:    durations,
		results:      results,
		diagnostics:  diagnostics,
		fatalReports: fatalReports,
	}, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// ObserveDiagnostics folds a validation report into the severity-labelled
// diagnostic counters.
func (r *PrometheusMetricsRecorder) ObserveDiagnostics(_ context.Context, operation string, report domain.Report) {
	if operation == "" {
		return
	}
	for _, d := range report.Diagnostics {
		r.diagnostics.WithLabelValues(operation, severityKey(d.Severity)).Inc()
	}
	if report.HasFatal() {
		r.fatalReports.WithLabelValues(operation).Inc()
	}
}
