// Package augment decides how a freshly decoded single-sample fragment
// combines with an archived mission aggregate: not at all, as a new mission,
// as a new operation, or as one more sample appended to the reading vectors.
package augment

import (
	"errors"
	"fmt"
	"time"

	"oceancurate/internal/merge"
	"oceancurate/pkg/domain"
)

// Outcome is the single terminal decision of one augmentation call.
type Outcome int

const (
	// OutcomeIdentical means the fragment carries nothing new.
	OutcomeIdentical Outcome = iota
	// OutcomeNewMission means the fragment starts a different mission.
	OutcomeNewMission
	// OutcomeNewOperation means the fragment's operation is appended.
	OutcomeNewOperation
	// OutcomeNewReading means the fragment's sample is appended to the
	// reading vectors of the last operation.
	OutcomeNewReading
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdentical:
		return "identical"
	case OutcomeNewMission:
		return "new mission"
	case OutcomeNewOperation:
		return "new operation"
	case OutcomeNewReading:
		return "new reading"
	default:
		return "unknown"
	}
}

// ErrFragmentShape signals a fragment that is not a single-sample aggregate.
var ErrFragmentShape = errors.New("fragment must carry one operation with single-sample readings")

// maxSampleGap is the largest time distance between the last archived sample
// and a new one before the new sample opens a new operation.
const maxSampleGap = 24 * time.Hour

// Augment combines an archived mission with a single-sample fragment and
// returns the combined aggregate plus the outcome taken. Both inputs are
// left untouched. The fragment must hold exactly one operation whose
// parameters each carry at most one sample; multi-instrument aggregates are
// compared on the first instrument only when deciding a new reading.
func Augment(old, fragment domain.Mission) (domain.Mission, Outcome, error) {
	if err := checkFragmentShape(&fragment); err != nil {
		return domain.Mission{}, OutcomeIdentical, err
	}

	if old.IsEmpty() {
		out := fragment.Clone()
		recomputeDerivedTimes(&out)
		return out, OutcomeNewMission, nil
	}

	if missionsIdentical(&old, &fragment) {
		return old.Clone(), OutcomeIdentical, nil
	}

	if fragment.StartYear() > old.StartYear() || missionShellDiffers(&old, &fragment) {
		out := fragment.Clone()
		if fragment.StartYear() == old.StartYear() {
			out.Fields.Set(domain.FieldMissionNumber, domain.Integer(old.MissionNumber()+1))
		}
		recomputeDerivedTimes(&out)
		return out, OutcomeNewMission, nil
	}

	if len(old.Operations) == 0 {
		out := old.Clone()
		appendOperation(&out, &fragment.Operations[0])
		recomputeDerivedTimes(&out)
		return out, OutcomeNewOperation, nil
	}

	lastOp := &old.Operations[len(old.Operations)-1]
	newOp := &fragment.Operations[0]
	if operationStructureDiffers(lastOp, newOp) || sampleGapExceeded(lastOp, newOp) {
		out := old.Clone()
		appendOperation(&out, newOp)
		recomputeDerivedTimes(&out)
		return out, OutcomeNewOperation, nil
	}

	if sampleChanged(lastOp, newOp) {
		out := old.Clone()
		appendSample(&out.Operations[len(out.Operations)-1], newOp)
		recomputeDerivedTimes(&out)
		return out, OutcomeNewReading, nil
	}

	return old.Clone(), OutcomeIdentical, nil
}

func checkFragmentShape(fragment *domain.Mission) error {
	if fragment.IsEmpty() {
		return fmt.Errorf("%w: empty fragment", ErrFragmentShape)
	}
	if len(fragment.Operations) != 1 {
		return fmt.Errorf("%w: %d operations", ErrFragmentShape, len(fragment.Operations))
	}
	op := &fragment.Operations[0]
	if len(op.Instruments) == 0 {
		return fmt.Errorf("%w: no instruments", ErrFragmentShape)
	}
	for i := range op.Instruments {
		for j := range op.Instruments[i].Parameters {
			if op.Instruments[i].Parameters[j].SampleCount() > 1 {
				return fmt.Errorf("%w: parameter %s carries %d samples",
					ErrFragmentShape,
					op.Instruments[i].Parameters[j].Code(),
					op.Instruments[i].Parameters[j].SampleCount())
			}
		}
	}
	return nil
}

// operationStructureDiffers compares the archived last operation against the
// fragment's operation with assigned numbers, time bounds, and readings
// stripped. Any difference means the fragment describes a distinct sampling
// event.
func operationStructureDiffers(oldOp, newOp *domain.Operation) bool {
	if operationShellDiffers(oldOp, newOp) {
		return true
	}
	if len(oldOp.Instruments) != len(newOp.Instruments) {
		return true
	}
	for i := range oldOp.Instruments {
		oldInst := &oldOp.Instruments[i]
		newInst := &newOp.Instruments[i]
		if instrumentShellDiffers(oldInst, newInst) {
			return true
		}
		if len(oldInst.Parameters) != len(newInst.Parameters) {
			return true
		}
		for j := range oldInst.Parameters {
			oldP := &oldInst.Parameters[j]
			newP := &newInst.Parameters[j]
			if oldP.Code() != newP.Code() {
				return true
			}
			if oldP.Fields.Text(domain.FieldParameterNumber) != newP.Fields.Text(domain.FieldParameterNumber) {
				return true
			}
			if parameterShellDiffers(oldP, newP) {
				return true
			}
		}
	}
	return false
}

// sampleGapExceeded reports whether the fragment's sample sits more than the
// allowed gap beyond the last archived sample. Without a time-bearing
// parameter on both sides, gap-based splitting is disabled.
func sampleGapExceeded(oldOp, newOp *domain.Operation) bool {
	oldTP := timeParameter(&oldOp.Instruments[0])
	newTP := timeParameter(&newOp.Instruments[0])
	if oldTP == nil || newTP == nil {
		return false
	}
	last, ok := lastSampleTime(oldTP)
	if !ok {
		return false
	}
	next, ok := lastSampleTime(newTP)
	if !ok {
		return false
	}
	return next.Sub(last) > maxSampleGap
}

// sampleChanged reports whether the fragment's sample differs from the last
// archived one, judged on the time-bearing parameter or, absent one, on any
// parameter value.
func sampleChanged(oldOp, newOp *domain.Operation) bool {
	oldInst := &oldOp.Instruments[0]
	newInst := &newOp.Instruments[0]

	if oldTP := timeParameter(oldInst); oldTP != nil {
		newTP := timeParameter(newInst)
		if newTP == nil {
			return false
		}
		// Compare the parsed instants: one side may still be text-kinded
		// after JSON hydration while the other is schema-typed.
		oldT, okOld := lastSampleTime(oldTP)
		newT, okNew := lastSampleTime(newTP)
		if okOld && okNew {
			return !oldT.Equal(newT)
		}
		oldV, okOld := lastSampleValue(oldTP)
		newV, okNew := lastSampleValue(newTP)
		return okOld && okNew && !oldV.Equal(newV)
	}

	for i := range oldInst.Parameters {
		if i >= len(newInst.Parameters) {
			break
		}
		oldV, okOld := lastSampleValue(&oldInst.Parameters[i])
		newV, okNew := lastSampleValue(&newInst.Parameters[i])
		if okOld && okNew && !oldV.Equal(newV) {
			return true
		}
	}
	return false
}

// appendOperation renumbers the fragment's operation one past the highest
// existing number and appends it.
func appendOperation(m *domain.Mission, newOp *domain.Operation) {
	var last int64
	for i := range m.Operations {
		if n := m.Operations[i].OperationNumber(); n > last {
			last = n
		}
	}
	op := newOp.Clone()
	op.Fields.Set(domain.FieldOperationNumber, domain.Integer(last+1))
	m.Operations = append(m.Operations, op)
}

// appendSample grows every parameter's reading vectors of the operation's
// first instrument by the fragment's sample, keeping row alignment: the same
// next integer becomes each parameter's new vector position and sampleIndex.
func appendSample(op *domain.Operation, newOp *domain.Operation) {
	inst := &op.Instruments[0]
	newInst := &newOp.Instruments[0]

	next := nextSampleIndex(inst)
	for i := range inst.Parameters {
		p := &inst.Parameters[i]
		merge.Parameter(p)
		if len(p.Readings) == 0 {
			continue
		}
		var frag domain.FieldMap
		if i < len(newInst.Parameters) && len(newInst.Parameters[i].Readings) == 1 {
			frag = newInst.Parameters[i].Readings[0].Fields
		}

		rd := &p.Readings[0]
		for _, name := range rd.Fields.Names() {
			current, _ := rd.Fields.Get(name)
			var sample domain.Value
			switch {
			case name == domain.FieldSampleIndex:
				sample = domain.Integer(next)
			default:
				if v, ok := frag.Get(name); ok {
					sample = v
				} else {
					sample, _ = domain.Coerce("", current.Kind())
				}
			}
			rd.Fields.Set(name, current.Append(sample))
		}
	}
}

// nextSampleIndex returns one past the highest sampleIndex in the
// instrument, falling back to the sample count when no index exists.
func nextSampleIndex(inst *domain.Instrument) int64 {
	highest := int64(-1)
	indexed := false
	for i := range inst.Parameters {
		for _, rd := range inst.Parameters[i].Readings {
			v, ok := rd.Fields.Get(domain.FieldSampleIndex)
			if !ok || v.IsEmpty() {
				continue
			}
			for _, elem := range v.Elems() {
				indexed = true
				if elem.Int() > highest {
					highest = elem.Int()
				}
			}
		}
	}
	if indexed {
		return highest + 1
	}
	if len(inst.Parameters) > 0 {
		return int64(inst.Parameters[0].SampleCount())
	}
	return 0
}

// timeParameter returns the instrument's time-bearing parameter: the first
// one whose value samples carry instants.
func timeParameter(inst *domain.Instrument) *domain.Parameter {
	for i := range inst.Parameters {
		p := &inst.Parameters[i]
		if len(p.Readings) == 0 {
			continue
		}
		if v, ok := p.Readings[0].Fields.Get(domain.FieldValue); ok && isDateTimeValue(v) {
			return p
		}
	}
	return nil
}

// isDateTimeValue reports whether a reading value holds datetime samples,
// either schema-typed or still textual after JSON hydration.
func isDateTimeValue(v domain.Value) bool {
	switch v.Kind() {
	case domain.KindDateTime:
		return true
	case domain.KindString:
		for _, elem := range v.Elems() {
			if elem.IsEmpty() {
				continue
			}
			return domain.InferKind(elem.Text()) == domain.KindDateTime
		}
	}
	return false
}

func lastSampleValue(p *domain.Parameter) (domain.Value, bool) {
	if len(p.Readings) == 0 {
		return domain.Value{}, false
	}
	last := p.Readings[len(p.Readings)-1]
	v, ok := last.Fields.Get(domain.FieldValue)
	if !ok {
		return domain.Value{}, false
	}
	if v.IsVector() {
		if v.Len() == 0 {
			return domain.Value{}, false
		}
		return v.Index(v.Len() - 1), true
	}
	return v, true
}

func lastSampleTime(p *domain.Parameter) (time.Time, bool) {
	v, ok := lastSampleValue(p)
	if !ok {
		return time.Time{}, false
	}
	if !v.Time().IsZero() {
		return v.Time(), true
	}
	if dt, ok := domain.Coerce(v.Text(), domain.KindDateTime); ok && !dt.Time().IsZero() {
		return dt.Time(), true
	}
	return time.Time{}, false
}

// recomputeDerivedTimes refreshes the last operation's end time and the
// mission stop date from the time-bearing parameter's last sample. Without
// one, the derived fields are emptied rather than left stale.
func recomputeDerivedTimes(m *domain.Mission) {
	if len(m.Operations) == 0 {
		return
	}
	op := &m.Operations[len(m.Operations)-1]
	if len(op.Instruments) == 0 {
		return
	}
	tp := timeParameter(&op.Instruments[0])
	if tp != nil {
		if ts, ok := lastSampleTime(tp); ok {
			op.Fields.Set(domain.FieldTimeEnd, domain.DateTime(ts))
			m.Fields.Set(domain.FieldMissionStopDate, domain.Date(ts))
			return
		}
	}
	emptyDT, _ := domain.Coerce("", domain.KindDateTime)
	emptyDate, _ := domain.Coerce("", domain.KindDate)
	op.Fields.Set(domain.FieldTimeEnd, emptyDT)
	m.Fields.Set(domain.FieldMissionStopDate, emptyDate)
}
