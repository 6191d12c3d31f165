package domain

import "fmt"

// Severity grades a diagnostic. Callers filter the stream by a minimum
// severity for display; whether a defect nullifies the outcome is tracked
// separately on the report.
type Severity int

// Diagnostic severities, lowest display priority first.
const (
	// SeverityInfo reports successful or informational outcomes.
	SeverityInfo Severity = 1
	// SeverityCorrected reports a defect that was repaired in place.
	SeverityCorrected Severity = 2
	// SeverityUnverifiable reports a check that could not be completed.
	SeverityUnverifiable Severity = 3
	// SeverityFatal reports a defect that invalidates the record.
	SeverityFatal Severity = 4
)

// Diagnostic is one graded message emitted during validation or
// consistency checking.
type Diagnostic struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Report accumulates diagnostics across one validation pass. Defects are
// collected, never thrown: a single fatal flag decides whether the caller
// receives a usable record.
type Report struct {
	Diagnostics []Diagnostic
	fatal       bool
}

// Add appends a formatted diagnostic. A fatal severity latches the report's
// fatal flag.
func (r *Report) Add(sev Severity, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Text: fmt.Sprintf(format, args...), Severity: sev})
	if sev >= SeverityFatal {
		r.fatal = true
	}
}

// AddDemoted appends a diagnostic at the lowest display priority while still
// latching the fatal flag for the given severity. The validator uses this to
// throttle verbosity on large missions without weakening the outcome.
func (r *Report) AddDemoted(sev Severity, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Text: fmt.Sprintf(format, args...), Severity: SeverityInfo})
	if sev >= SeverityFatal {
		r.fatal = true
	}
}

// Merge appends another report's diagnostics and fatal state.
func (r *Report) Merge(other Report) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.fatal = r.fatal || other.fatal
}

// HasFatal reports whether any fatal defect was recorded.
func (r *Report) HasFatal() bool { return r.fatal }

// Filter returns the diagnostics at or above the minimum severity.
func (r *Report) Filter(min Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity >= min {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of diagnostics at or above the given severity.
func (r *Report) Count(min Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity >= min {
			n++
		}
	}
	return n
}
