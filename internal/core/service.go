package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"oceancurate/internal/augment"
	"oceancurate/internal/blob"
	"oceancurate/internal/merge"
	"oceancurate/internal/schema"
	"oceancurate/internal/validate"
	"oceancurate/pkg/domain"
)

// ErrValidationFailed marks a submission rejected for fatal defects. The
// accompanying report carries the diagnostics.
var ErrValidationFailed = errors.New("mission failed validation")

// Service exposes the curation operations over one mission archive: record
// validation, parameter consistency checks, reading-vector merge, archive
// augmentation, and submission bundling.
type Service struct {
	schema    domain.SchemaProvider
	refs      domain.ReferenceResolver
	props     domain.PropertyTypeTable
	validator *validate.Validator
	store     domain.MissionStore
	bundles   blob.Store
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	clock     func() time.Time
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger installs a structured logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithBundleStore installs the store receiving submission bundles.
func WithBundleStore(b blob.Store) Option {
	return func(s *Service) { s.bundles = b }
}

// WithSchemaProvider replaces the built-in schema tables.
func WithSchemaProvider(p domain.SchemaProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.schema = p
		}
	}
}

// WithClock fixes the wall clock used for realism checks and bundle keys.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.clock = fn
		}
	}
}

// NewService constructs a service over the given archive and reference
// providers.
func NewService(store domain.MissionStore, refs domain.ReferenceResolver, props domain.PropertyTypeTable, opts ...Option) *Service {
	s := &Service{
		schema:  schema.NewProvider(),
		refs:    refs,
		props:   props,
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validate.New(s.schema, s.refs, s.props)
	return s
}

// Store returns the underlying mission archive.
func (s *Service) Store() domain.MissionStore { return s.store }

// begin opens a span and returns the completion hook feeding the logger and
// the metrics sink.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	return ctx, func(err error) {
		duration := time.Since(start)
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, duration)
		if err != nil {
			s.logger.Error(operation, "error", err)
			return
		}
		s.logger.Debug(operation, "duration_ms", float64(duration)/float64(time.Millisecond))
	}
}

// recordDiagnostics forwards a validation report to the metrics sink when it
// tracks per-severity diagnostic counts.
func (s *Service) recordDiagnostics(ctx context.Context, operation string, report domain.Report) {
	if dr, ok := s.metrics.(DiagnosticsRecorder); ok {
		dr.ObserveDiagnostics(ctx, operation, report)
	}
}

// ValidateMission runs one validation pass and returns the repaired
// aggregate, the diagnostic report, and whether the result is usable.
func (s *Service) ValidateMission(ctx context.Context, mission domain.Mission, vctx domain.Context, opts validate.Options) (domain.Mission, domain.Report, bool) {
	ctx, finish := s.begin(ctx, "validate_mission")
	if opts.Now.IsZero() {
		opts.Now = s.clock().UTC()
	}
	out, report, ok := s.validator.Validate(ctx, mission, vctx, opts)
	s.recordDiagnostics(ctx, "validate_mission", report)
	var err error
	if !ok {
		err = fmt.Errorf("%w: %d fatal defects", ErrValidationFailed, report.Count(domain.SeverityFatal))
	}
	finish(err)
	return out, report, ok
}

// ValidateProperties checks a property list against the property-type table,
// dropping unknown codes and blanking malformed values.
func (s *Service) ValidateProperties(ctx context.Context, entries []domain.PropertyEntry) ([]domain.PropertyEntry, domain.Report) {
	ctx, finish := s.begin(ctx, "validate_properties")
	out, report := validate.Properties(entries, s.props)
	s.recordDiagnostics(ctx, "validate_properties", report)
	finish(nil)
	return out, report
}

// CheckParameters runs the selected parameter identity checks over one
// instrument.
func (s *Service) CheckParameters(ctx context.Context, inst *domain.Instrument, sel validate.TestSelector) ([]string, validate.CheckStatus) {
	_, finish := s.begin(ctx, "check_parameters")
	messages, status := validate.CheckParameters(inst, sel)
	var err error
	if status == validate.CheckFatal {
		err = errors.New("parameter identity check failed")
	}
	finish(err)
	return messages, status
}

// MergeReadings merges per-sample readings into parallel vectors for the
// archived mission under key and stores the result. An empty anchor selects
// the default re-sort parameter.
func (s *Service) MergeReadings(ctx context.Context, key, anchor string) (domain.Mission, error) {
	ctx, finish := s.begin(ctx, "merge_readings")
	mission, err := s.store.Get(ctx, key)
	if err != nil {
		finish(err)
		return domain.Mission{}, err
	}
	merged := merge.Mission(mission, anchor)
	if err := s.store.Put(ctx, merged); err != nil {
		finish(err)
		return domain.Mission{}, err
	}
	finish(nil)
	return merged, nil
}

// AugmentArchive folds a single-sample fragment into the archived mission
// with the same identity, storing the result. A fragment with no archived
// counterpart starts a new archive entry.
func (s *Service) AugmentArchive(ctx context.Context, fragment domain.Mission) (domain.Mission, augment.Outcome, error) {
	ctx, finish := s.begin(ctx, "augment_archive")

	var old domain.Mission
	var notFound domain.ErrNotFound
	archived, err := s.store.Get(ctx, fragment.Key())
	switch {
	case err == nil:
		old = archived
	case errors.As(err, &notFound):
		// First fragment for this identity.
	default:
		finish(err)
		return domain.Mission{}, augment.OutcomeIdentical, err
	}

	merged, outcome, err := augment.Augment(old, fragment)
	if err != nil {
		finish(err)
		return domain.Mission{}, outcome, err
	}
	if outcome != augment.OutcomeIdentical {
		if err := s.store.Put(ctx, merged); err != nil {
			finish(err)
			return domain.Mission{}, outcome, err
		}
	}
	s.logger.Info("augment_archive", "mission", merged.Key(), "outcome", outcome.String())
	finish(nil)
	return merged, outcome, nil
}

// SubmitResult reports the outcome of a submission.
type SubmitResult struct {
	Mission   domain.Mission
	Report    domain.Report
	BundleKey string
}

// Submit validates a mission, archives the repaired aggregate, and writes the
// submission bundle handed to the downstream metadata database. Fatal defects
// abort the submission with ErrValidationFailed.
func (s *Service) Submit(ctx context.Context, mission domain.Mission, vctx domain.Context, opts validate.Options) (SubmitResult, error) {
	ctx, finish := s.begin(ctx, "submit_mission")
	if opts.Now.IsZero() {
		opts.Now = s.clock().UTC()
	}
	out, report, ok := s.validator.Validate(ctx, mission, vctx, opts)
	s.recordDiagnostics(ctx, "submit_mission", report)
	if !ok {
		err := fmt.Errorf("%w: %d fatal defects", ErrValidationFailed, report.Count(domain.SeverityFatal))
		finish(err)
		return SubmitResult{Report: report}, err
	}
	if err := s.store.Put(ctx, out); err != nil {
		finish(err)
		return SubmitResult{Report: report}, err
	}

	result := SubmitResult{Mission: out, Report: report}
	if s.bundles != nil {
		key, err := s.writeBundle(ctx, out, vctx)
		if err != nil {
			finish(err)
			return result, err
		}
		result.BundleKey = key
	}
	finish(nil)
	return result, nil
}

func (s *Service) writeBundle(ctx context.Context, mission domain.Mission, vctx domain.Context) (string, error) {
	payload, err := json.Marshal(mission)
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}
	key := fmt.Sprintf("bundles/%s-%d.json",
		strings.ReplaceAll(mission.Key(), "/", "-"), s.clock().UTC().UnixNano())
	_, err = s.bundles.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"mission_key": mission.Key(),
			"context":     string(vctx),
		},
	})
	if err != nil {
		return "", fmt.Errorf("store bundle: %w", err)
	}
	return key, nil
}

// Fetch returns the archived mission under key.
func (s *Service) Fetch(ctx context.Context, key string) (domain.Mission, error) {
	ctx, finish := s.begin(ctx, "fetch_mission")
	mission, err := s.store.Get(ctx, key)
	finish(err)
	return mission, err
}

// Delete removes the archived mission under key, reporting whether it
// existed.
func (s *Service) Delete(ctx context.Context, key string) (bool, error) {
	ctx, finish := s.begin(ctx, "delete_mission")
	existed, err := s.store.Delete(ctx, key)
	finish(err)
	return existed, err
}

// Keys lists archived mission keys in ascending order.
func (s *Service) Keys(ctx context.Context) ([]string, error) {
	ctx, finish := s.begin(ctx, "list_missions")
	keys, err := s.store.Keys(ctx)
	finish(err)
	return keys, err
}
