// Package validate implements the record validator: it walks one mission
// aggregate level by level, enforcing field-name legality, mandatory
// presence, value-kind correctness, reference enrichment, and
// level-specific realism checks, accumulating graded diagnostics instead of
// aborting on the first defect.
package validate

import (
	"context"
	"strconv"
	"time"

	"oceancurate/pkg/domain"
)

// maxDetailedOperations caps how many operations report at full severity on
// large missions. Remaining operations' diagnostics are demoted to the
// lowest display priority; the fatal outcome is unaffected.
const maxDetailedOperations = 5

// Options tunes one validation pass.
type Options struct {
	// AddNames fills enrichment name fields unconditionally from the
	// reference tables, overwriting mismatched values.
	AddNames bool
	// IgnoreErrors returns the best-effort repaired record even when fatal
	// defects remain.
	IgnoreErrors bool
	// Now anchors date realism checks; zero means the wall clock.
	Now time.Time
}

// Validator enforces the data model invariants over one mission aggregate.
type Validator struct {
	schema domain.SchemaProvider
	refs   domain.ReferenceResolver
	props  domain.PropertyTypeTable
}

// New constructs a validator over the given providers.
func New(schema domain.SchemaProvider, refs domain.ReferenceResolver, props domain.PropertyTypeTable) *Validator {
	return &Validator{schema: schema, refs: refs, props: props}
}

// emitter prefixes diagnostics with their tree location and carries the
// demotion switch for sampled-out operations.
type emitter struct {
	report *domain.Report
	prefix string
	demote bool
}

func (e emitter) at(suffix string) emitter {
	out := e
	if out.prefix == "" {
		out.prefix = suffix
	} else {
		out.prefix += ": " + suffix
	}
	return out
}

func (e emitter) demoted() emitter {
	out := e
	out.demote = true
	return out
}

func (e emitter) emit(sev domain.Severity, format string, args ...any) {
	format = e.prefix + ": " + format
	if e.demote {
		e.report.AddDemoted(sev, format, args...)
		return
	}
	e.report.Add(sev, format, args...)
}

// Validate walks the mission top-down and returns the repaired aggregate,
// the diagnostic report, and whether the result is usable. When fatal
// defects remain and IgnoreErrors is unset, the returned mission is empty.
func (v *Validator) Validate(ctx context.Context, mission domain.Mission, vctx domain.Context, opts Options) (domain.Mission, domain.Report, bool) {
	var report domain.Report
	out := mission.Clone()
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	v.validateMission(ctx, &out, vctx, opts, now, emitter{report: &report, prefix: "mission"})

	if report.HasFatal() && !opts.IgnoreErrors {
		return domain.Mission{}, report, false
	}
	return out, report, true
}

func (v *Validator) validateMission(ctx context.Context, m *domain.Mission, vctx domain.Context, opts Options, now time.Time, em emitter) {
	set, err := v.schema.FieldsFor(domain.LevelMission, vctx)
	if err != nil {
		em.emit(domain.SeverityFatal, "schema unavailable: %v", err)
		return
	}

	v.checkFields(ctx, &m.Fields, set, opts, missionStartAsOf(&m.Fields), em)
	checkMissionRealism(m, now, em)
	m.Properties = v.checkProperties(m.Properties, em)

	detailed := sampleIndices(len(m.Operations), maxDetailedOperations)
	for i := range m.Operations {
		opEm := em.at(opLabel(i, &m.Operations[i]))
		if !detailed[i] {
			opEm = opEm.demoted()
		}
		v.validateOperation(ctx, &m.Operations[i], vctx, opts, now, opEm)
	}
}

func (v *Validator) validateOperation(ctx context.Context, op *domain.Operation, vctx domain.Context, opts Options, now time.Time, em emitter) {
	set, err := v.schema.FieldsFor(domain.LevelOperation, vctx)
	if err != nil {
		em.emit(domain.SeverityFatal, "schema unavailable: %v", err)
		return
	}
	v.checkFields(ctx, &op.Fields, set, opts, time.Time{}, em)
	checkOperationRealism(op, now, em)
	fillOperationFlagDefaults(op, em)
	op.Properties = v.checkProperties(op.Properties, em)

	for i := range op.Instruments {
		v.validateInstrument(ctx, &op.Instruments[i], vctx, opts, em.at(instLabel(i, &op.Instruments[i])))
	}
}

func (v *Validator) validateInstrument(ctx context.Context, inst *domain.Instrument, vctx domain.Context, opts Options, em emitter) {
	set, err := v.schema.FieldsFor(domain.LevelInstrument, vctx)
	if err != nil {
		em.emit(domain.SeverityFatal, "schema unavailable: %v", err)
		return
	}
	v.checkFields(ctx, &inst.Fields, set, opts, time.Time{}, em)
	inst.Properties = v.checkProperties(inst.Properties, em)

	sel := TestAll
	if vctx == domain.ContextImport {
		// Ids are assigned downstream; import data legitimately lacks them.
		sel &^= TestParameterID
	}
	msgs, status := CheckParameters(inst, sel)
	sev := domain.SeverityUnverifiable
	if status == CheckFatal {
		sev = domain.SeverityFatal
	}
	for _, msg := range msgs {
		em.emit(sev, "%s", msg)
	}

	for i := range inst.Parameters {
		v.validateParameter(ctx, &inst.Parameters[i], vctx, opts, em.at(paramLabel(i, &inst.Parameters[i])))
	}
}

func (v *Validator) validateParameter(ctx context.Context, p *domain.Parameter, vctx domain.Context, opts Options, em emitter) {
	set, err := v.schema.FieldsFor(domain.LevelParameter, vctx)
	if err != nil {
		em.emit(domain.SeverityFatal, "schema unavailable: %v", err)
		return
	}
	v.checkFields(ctx, &p.Fields, set, opts, time.Time{}, em)
	p.Properties = v.checkProperties(p.Properties, em)

	readingSet, err := v.schema.FieldsFor(domain.LevelReading, vctx)
	if err != nil {
		em.emit(domain.SeverityFatal, "schema unavailable: %v", err)
		return
	}
	for i := range p.Readings {
		rdEm := em.at(readingLabel(i))
		v.checkFields(ctx, &p.Readings[i].Fields, readingSet, opts, time.Time{}, rdEm)
		fillReadingFlagDefault(&p.Readings[i], rdEm)
	}
	fillProcessingLevelDefault(p, em)
}

// missionStartAsOf derives the platform-registry reference instant from the
// start date field. The field is still text-kinded when the mission was
// decoded from JSON, so the raw text is parsed rather than trusting the
// typed payload.
func missionStartAsOf(fields *domain.FieldMap) time.Time {
	start, ok := fields.Get(domain.FieldMissionStartDate)
	if !ok {
		return time.Time{}
	}
	if !start.Time().IsZero() {
		return start.Time()
	}
	if d, ok := domain.Coerce(start.Text(), domain.KindDate); ok {
		return d.Time()
	}
	return time.Time{}
}

// fillReadingFlagDefault applies the quality-flag repair rules: a present
// value with an empty flag gets the unflagged code; a missing or absent
// value gets the missing-data flag.
func fillReadingFlagDefault(rd *domain.Reading, em emitter) {
	if !rd.Fields.Empty(domain.FieldQualityFlag) {
		return
	}
	if rd.Fields.Empty(domain.FieldValue) {
		rd.Fields.Set(domain.FieldQualityFlag, domain.String(domain.QualityFlagMissing))
		em.emit(domain.SeverityInfo, "missing value flagged %s", domain.QualityFlagMissing)
		return
	}
	value, _ := rd.Fields.Get(domain.FieldValue)
	if value.IsVector() {
		// A merged reading gets a parallel flag vector so the leading
		// dimension stays equal across fields.
		elems := make([]domain.Value, value.Len())
		for i := range elems {
			flag := domain.QualityFlagNone
			if value.Index(i).IsEmpty() {
				flag = domain.QualityFlagMissing
			}
			elems[i] = domain.String(flag)
		}
		rd.Fields.Set(domain.FieldQualityFlag, domain.Vector(domain.KindString, elems))
		em.emit(domain.SeverityInfo, "quality flags defaulted per sample")
		return
	}
	rd.Fields.Set(domain.FieldQualityFlag, domain.String(domain.QualityFlagNone))
	em.emit(domain.SeverityInfo, "quality flag defaulted to %s", domain.QualityFlagNone)
}

// fillProcessingLevelDefault assigns the lowest processing level when no
// reading carries a flag above unflagged/missing.
func fillProcessingLevelDefault(p *domain.Parameter, em emitter) {
	if !p.Fields.Empty(domain.FieldProcessingLevel) {
		return
	}
	for i := range p.Readings {
		flag, ok := p.Readings[i].Fields.Get(domain.FieldQualityFlag)
		if !ok {
			continue
		}
		for _, elem := range flag.Elems() {
			switch elem.Text() {
			case "", domain.QualityFlagNone, domain.QualityFlagMissing:
			default:
				return
			}
		}
	}
	p.Fields.Set(domain.FieldProcessingLevel, domain.String(domain.ProcessingLevelRaw))
	em.emit(domain.SeverityInfo, "processingLevel defaulted to %s", domain.ProcessingLevelRaw)
}

// sampleIndices marks up to limit evenly spaced indices (always including
// the first and last) for full-detail reporting.
func sampleIndices(n, limit int) map[int]bool {
	detailed := make(map[int]bool, n)
	if n <= limit {
		for i := 0; i < n; i++ {
			detailed[i] = true
		}
		return detailed
	}
	step := float64(n-1) / float64(limit-1)
	for i := 0; i < limit; i++ {
		detailed[int(float64(i)*step+0.5)] = true
	}
	return detailed
}

func opLabel(i int, op *domain.Operation) string {
	if num := op.Fields.Text(domain.FieldOperationNumber); num != "" {
		return "operation " + num
	}
	return "operation #" + strconv.Itoa(i+1)
}

func instLabel(i int, inst *domain.Instrument) string {
	if t := inst.Fields.Text(domain.FieldInstrumentType); t != "" {
		return "instrument " + t
	}
	return "instrument #" + strconv.Itoa(i+1)
}

func paramLabel(i int, p *domain.Parameter) string {
	if code := p.Code(); code != "" {
		return "parameter " + code
	}
	return "parameter #" + strconv.Itoa(i+1)
}

func readingLabel(i int) string {
	return "reading #" + strconv.Itoa(i+1)
}
