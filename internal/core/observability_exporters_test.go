package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"strings"
	"testing"
	"time"

	"oceancurate/internal/augment"
	"oceancurate/pkg/domain"
)

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	recorder.Observe(ctx, "validate_mission", true, 20*time.Millisecond)
	recorder.Observe(ctx, "validate_mission", false, 5*time.Millisecond)
	recorder.Observe(ctx, "", true, time.Millisecond)

	var report domain.Report
	report.Add(domain.SeverityInfo, "quality flag defaulted")
	report.Add(domain.SeverityCorrected, "dropped illegal field")
	report.Add(domain.SeverityFatal, "mandatory field missing")
	recorder.ObserveDiagnostics(ctx, "validate_mission", report)
	recorder.ObserveDiagnostics(ctx, "", report)

	snapshot := recorder.Snapshot()
	st, ok := snapshot.Operations["validate_mission"]
	if !ok {
		t.Fatalf("operation not recorded: %v", snapshot.Operations)
	}
	if st.DurationMS != 25 {
		t.Fatalf("duration total = %v, want 25", st.DurationMS)
	}
	if st.Successes != 1 || st.Failures != 1 {
		t.Fatalf("results = %d/%d, want 1/1", st.Successes, st.Failures)
	}
	if st.Diagnostics["info"] != 1 || st.Diagnostics["corrected"] != 1 || st.Diagnostics["fatal"] != 1 {
		t.Fatalf("diagnostics = %v", st.Diagnostics)
	}
	if st.FatalReports != 1 {
		t.Fatalf("fatal reports = %d, want 1", st.FatalReports)
	}
	if len(snapshot.Operations) != 1 {
		t.Fatalf("empty operation recorded: %v", snapshot.Operations)
	}

	published := expvar.Get(recorder.Name())
	if published == nil {
		t.Fatalf("recorder not published under %q", recorder.Name())
	}
	if !strings.Contains(published.String(), "validate_mission") {
		t.Fatalf("expvar payload = %s", published.String())
	}
}

func TestJSONTraceTracerExports(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "merge_readings")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "augment_archive")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Operation != "merge_readings" || entries[0].Status != "success" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Detail != "boom" {
		t.Fatalf("second entry = %+v", entries[1])
	}

	dec := json.NewDecoder(&buf)
	var lines int
	for dec.More() {
		var entry JSONTraceEntry
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode line %d: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("encoded lines = %d", lines)
	}
}

func TestSpanStatusSeparatesRejectionsFromErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{fmt.Errorf("%w: 2 fatal defects", ErrValidationFailed), "rejected"},
		{fmt.Errorf("%w: empty fragment", augment.ErrFragmentShape), "rejected"},
		{domain.ErrNotFound{Key: "RV/2024/18HU/7"}, "rejected"},
		{errors.New("connection refused"), "error"},
	}
	for _, tc := range cases {
		if got := spanStatus(tc.err); got != tc.want {
			t.Fatalf("spanStatus(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
