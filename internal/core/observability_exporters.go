package core

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"oceancurate/internal/augment"
	"oceancurate/pkg/domain"
)

// DiagnosticsRecorder is implemented by metrics sinks that track the graded
// diagnostics an operation produced, not just its duration. The service
// forwards every validation report to sinks that support it.
type DiagnosticsRecorder interface {
	ObserveDiagnostics(ctx context.Context, operation string, report domain.Report)
}

var expvarSeq uint64

// OperationStats aggregates one operation's outcomes: wall time, result
// counts, diagnostics by severity, and how many reports latched fatal.
type OperationStats struct {
	DurationMS   float64          `json:"duration_ms_total"`
	Successes    int64            `json:"successes_total"`
	Failures     int64            `json:"failures_total"`
	Diagnostics  map[string]int64 `json:"diagnostics_total,omitempty"`
	FatalReports int64            `json:"fatal_reports_total"`
}

// ExpvarMetricsRecorder publishes per-operation curation statistics via
// expvar for deployments that prefer process-local metrics without an
// external scrape target.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*OperationStats
}

// ExpvarMetricsSnapshot is the read-only view served to expvar readers.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder published
// under the supplied name. When name is empty, a unique identifier is
// generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("curation_service_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name: name,
		ops:  make(map[string]*OperationStats),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated statistics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops := make(map[string]OperationStats, len(r.ops))
	for op, st := range r.ops {
		cp := *st
		if st.Diagnostics != nil {
			cp.Diagnostics = make(map[string]int64, len(st.Diagnostics))
			for sev, n := range st.Diagnostics {
				cp.Diagnostics[sev] = n
			}
		}
		ops[op] = cp
	}
	return ExpvarMetricsSnapshot{Operations: ops, RecordedAt: time.Now().UTC()}
}

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	st := r.stats(operation)
	st.DurationMS += float64(duration) / float64(time.Millisecond)
	if success {
		st.Successes++
	} else {
		st.Failures++
	}
	r.mu.Unlock()
}

// ObserveDiagnostics folds a validation report into the operation's
// per-severity counters.
func (r *ExpvarMetricsRecorder) ObserveDiagnostics(_ context.Context, operation string, report domain.Report) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	st := r.stats(operation)
	for _, d := range report.Diagnostics {
		if st.Diagnostics == nil {
			st.Diagnostics = make(map[string]int64, 4)
		}
		st.Diagnostics[severityKey(d.Severity)]++
	}
	if report.HasFatal() {
		st.FatalReports++
	}
	r.mu.Unlock()
}

// stats returns the mutable entry for operation; callers hold the lock.
func (r *ExpvarMetricsRecorder) stats(operation string) *OperationStats {
	st, ok := r.ops[operation]
	if !ok {
		st = &OperationStats{}
		r.ops[operation] = st
	}
	return st
}

func severityKey(sev domain.Severity) string {
	switch sev {
	case domain.SeverityInfo:
		return "info"
	case domain.SeverityCorrected:
		return "corrected"
	case domain.SeverityUnverifiable:
		return "unverifiable"
	case domain.SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// spanStatus separates domain rejections (fatal defects, malformed
// fragments, unknown missions) from infrastructure failures so trace
// consumers can alert on the latter alone.
func spanStatus(err error) string {
	var notFound domain.ErrNotFound
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidationFailed),
		errors.Is(err, augment.ErrFragmentShape),
		errors.As(err, &notFound):
		return "rejected"
	default:
		return "error"
	}
}

// JSONTraceEntry is one completed span in the JSON-lines trace log.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Detail     string    `json:"detail,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer serializes spans to a writer and retains them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer constructs a tracer that writes spans as JSON lines to the
// writer. Encoded spans stay available via Entries().
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &JSONTraceTracer{enc: enc}
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements the Tracer interface.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	span := &jsonTraceSpan{
		tracer:    t,
		operation: operation,
		started:   time.Now().UTC(),
	}
	return ctx, span
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	var detail string
	if err != nil {
		detail = err.Error()
	}
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     spanStatus(err),
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		Detail:     detail,
		StartedAt:  s.started,
		EndedAt:    ended,
	}

	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}
