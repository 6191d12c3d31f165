// Package merge collapses per-sample reading records into vectorized
// readings whose fields are equal-length parallel vectors, and keeps
// cross-parameter row alignment intact when re-sorting.
package merge

import (
	"math"
	"sort"
	"strings"

	"oceancurate/pkg/domain"
)

// Mission returns a copy of the mission with every parameter's readings
// merged. When an instrument carries no sample index anywhere, its
// parameters are jointly re-sorted by the anchor parameter's values; an
// empty anchor selects the default anchor code.
func Mission(m domain.Mission, anchor string) domain.Mission {
	out := m.Clone()
	for i := range out.Operations {
		for j := range out.Operations[i].Instruments {
			Instrument(&out.Operations[i].Instruments[j], anchor)
		}
	}
	return out
}

// Instrument merges every parameter in place. The joint anchor re-sort only
// runs when no reading in the instrument carried a sample index, because an
// explicit index is already the authoritative row order.
func Instrument(inst *domain.Instrument, anchor string) {
	if anchor == "" {
		anchor = domain.DefaultAnchorParameter
	}
	hasIndex := false
	for i := range inst.Parameters {
		for _, rd := range inst.Parameters[i].Readings {
			if !rd.Fields.Empty(domain.FieldSampleIndex) {
				hasIndex = true
			}
		}
	}
	for i := range inst.Parameters {
		Parameter(&inst.Parameters[i])
	}
	if !hasIndex {
		resortByAnchor(inst, anchor)
	}
}

// Parameter collapses N single-sample readings into one vectorized reading
// in place. Records are ordered by sampleIndex when present (records without
// one keep their relative order at the end); textual fields are padded to a
// common width so the vector stacks as a fixed-width block.
func Parameter(p *domain.Parameter) {
	if len(p.Readings) <= 1 {
		return
	}

	order := make([]int, len(p.Readings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, oka := sampleIndexOf(&p.Readings[order[a]])
		ib, okb := sampleIndexOf(&p.Readings[order[b]])
		if oka != okb {
			return oka
		}
		return oka && ia < ib
	})

	var names []string
	seen := make(map[string]bool)
	for _, rd := range p.Readings {
		for _, name := range rd.Fields.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	var merged domain.Reading
	for _, name := range names {
		kind := domain.KindString
		for _, idx := range order {
			if v, ok := p.Readings[idx].Fields.Get(name); ok && !v.IsEmpty() {
				kind = v.Kind()
				break
			}
		}

		elems := make([]domain.Value, 0, len(order))
		for _, idx := range order {
			v, ok := p.Readings[idx].Fields.Get(name)
			if !ok || (v.IsEmpty() && v.Kind() != kind) {
				v, _ = domain.Coerce("", kind)
			}
			elems = append(elems, v)
		}
		if kind == domain.KindString {
			elems = padToCommonWidth(elems)
		}
		merged.Fields.Set(name, domain.Vector(kind, elems))
	}
	p.Readings = []domain.Reading{merged}
}

// SplitReadings is the inverse of Parameter: one vectorized reading becomes
// one record per sample, with string padding stripped.
func SplitReadings(p *domain.Parameter) {
	if !p.Merged() {
		return
	}
	vec := p.Readings[0]
	n := p.SampleCount()
	out := make([]domain.Reading, 0, n)
	for i := 0; i < n; i++ {
		var rd domain.Reading
		for _, name := range vec.Fields.Names() {
			v, _ := vec.Fields.Get(name)
			elem := v.Index(i)
			if elem.Kind() == domain.KindString {
				elem = domain.String(strings.TrimRight(elem.Text(), " "))
			}
			rd.Fields.Set(name, elem)
		}
		out = append(out, rd)
	}
	p.Readings = out
}

// AssignSampleIndexes derives the sample-index field from the current row
// order, starting at zero so the index doubles as the vector position.
func AssignSampleIndexes(p *domain.Parameter) {
	if len(p.Readings) == 0 {
		return
	}
	if p.Merged() {
		n := p.SampleCount()
		elems := make([]domain.Value, n)
		for i := 0; i < n; i++ {
			elems[i] = domain.Integer(int64(i))
		}
		p.Readings[0].Fields.Set(domain.FieldSampleIndex, domain.Vector(domain.KindInteger, elems))
		return
	}
	for i := range p.Readings {
		p.Readings[i].Fields.Set(domain.FieldSampleIndex, domain.Integer(int64(i)))
	}
}

func sampleIndexOf(rd *domain.Reading) (float64, bool) {
	v, ok := rd.Fields.Get(domain.FieldSampleIndex)
	if !ok || v.IsEmpty() {
		return 0, false
	}
	f := v.Float()
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func padToCommonWidth(elems []domain.Value) []domain.Value {
	width := 0
	for _, e := range elems {
		if len(e.Text()) > width {
			width = len(e.Text())
		}
	}
	out := make([]domain.Value, len(elems))
	for i, e := range elems {
		text := e.Text()
		if len(text) < width {
			text += strings.Repeat(" ", width-len(text))
		}
		out[i] = domain.String(text)
	}
	return out
}

// resortByAnchor permutes every parameter's rows by the anchor parameter's
// ascending values. All parameters must share the anchor's sample count or
// the permutation would break row alignment, so a mismatch disables it.
func resortByAnchor(inst *domain.Instrument, anchor string) {
	var anchorParam *domain.Parameter
	for i := range inst.Parameters {
		if inst.Parameters[i].Code() == anchor {
			anchorParam = &inst.Parameters[i]
			break
		}
	}
	if anchorParam == nil || len(anchorParam.Readings) != 1 {
		return
	}
	key, ok := anchorParam.Readings[0].Fields.Get(domain.FieldValue)
	if !ok {
		return
	}
	n := key.Len()
	for i := range inst.Parameters {
		if inst.Parameters[i].SampleCount() != n {
			return
		}
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		fa, fb := key.Index(perm[a]).Float(), key.Index(perm[b]).Float()
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return !math.IsNaN(fa) && math.IsNaN(fb)
		}
		return fa < fb
	})

	for i := range inst.Parameters {
		p := &inst.Parameters[i]
		if len(p.Readings) != 1 {
			continue
		}
		fields := &p.Readings[0].Fields
		for _, name := range fields.Names() {
			v, _ := fields.Get(name)
			if !v.IsVector() {
				continue
			}
			elems := v.Elems()
			permuted := make([]domain.Value, n)
			for j := 0; j < n; j++ {
				permuted[j] = elems[perm[j]]
			}
			fields.Set(name, domain.Vector(v.Kind(), permuted))
		}
	}
}
