package validate

import (
	"context"
	"strings"
	"time"

	"oceancurate/pkg/domain"
)

// checkFields applies the per-record field rules: partition names into
// legal/illegal and drop the illegal ones, coerce every remaining value to
// its declared kind, verify mandatory presence, and enrich code fields from
// the reference tables. A fatal defect on one field never stops the
// remaining fields from being checked.
func (v *Validator) checkFields(ctx context.Context, fields *domain.FieldMap, set domain.FieldSet, opts Options, asOf time.Time, em emitter) {
	for _, name := range fields.Names() {
		if !set.Legal(name) {
			fields.Delete(name)
			em.emit(domain.SeverityCorrected, "dropped illegal field %s", name)
		}
	}

	for _, name := range fields.Names() {
		spec, _ := set.Spec(name)
		value, _ := fields.Get(name)
		kind := spec.Kind
		if kind == domain.KindUnknown {
			// Reading values are typed per parameter; normalise by inference.
			kind = inferValueKind(value)
		}
		coerced, bad, ok := coerceValue(value, kind)
		if !ok {
			em.emit(domain.SeverityFatal, "field %s: value %q is not a valid %s", name, bad, kind)
			continue
		}
		fields.Set(name, coerced)
	}

	for _, spec := range set.Mandatory {
		if fields.Empty(spec.Name) {
			em.emit(domain.SeverityFatal, "mandatory field %s is missing or empty", spec.Name)
		}
	}

	for _, spec := range append(append([]domain.FieldSpec(nil), set.Mandatory...), set.Optional...) {
		if spec.RefTable == "" || fields.Empty(spec.Name) {
			continue
		}
		if value, _ := fields.Get(spec.Name); value.IsVector() {
			v.checkCodeVector(ctx, value, spec, em)
			continue
		}
		v.enrichCodeField(ctx, fields, spec, opts, asOf, em)
	}
}

// checkCodeVector verifies each distinct code in a merged vector field.
// Vector fields carry no paired name field to reconcile, so resolution only
// grades the codes. Merge pads string vectors to a common width, so the
// padding is stripped before lookup.
func (v *Validator) checkCodeVector(ctx context.Context, value domain.Value, spec domain.FieldSpec, em emitter) {
	seen := make(map[string]bool)
	for _, elem := range value.Elems() {
		code := strings.TrimSpace(elem.Text())
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		_, msg, status := v.refs.Lookup(ctx, spec.RefTable, code, domain.RefColumnName)
		switch status {
		case domain.LookupNoMatch:
			em.emit(domain.SeverityFatal, "field %s: code %q not found in %s", spec.Name, code, spec.RefTable)
		case domain.LookupConnectivityError:
			em.emit(domain.SeverityUnverifiable, "field %s: %s", spec.Name, msg)
		case domain.LookupInvalidCall:
			em.emit(domain.SeverityUnverifiable, "field %s: reference lookup rejected: %s", spec.Name, msg)
		}
	}
}

// inferValueKind picks the working kind for an untyped field: the value's
// own kind when it arrived numerically typed, otherwise inference over the
// first non-empty sample.
func inferValueKind(value domain.Value) domain.Kind {
	switch value.Kind() {
	case domain.KindDecimal, domain.KindInteger:
		return value.Kind()
	}
	for _, elem := range value.Elems() {
		if !elem.IsEmpty() {
			return domain.InferKind(elem.Text())
		}
	}
	return domain.KindString
}

// coerceValue coerces a scalar directly; a merged reading vector is coerced
// element-wise so its leading dimension survives validation. The raw text of
// the failing sample is returned for the diagnostic.
func coerceValue(value domain.Value, kind domain.Kind) (domain.Value, string, bool) {
	if !value.IsVector() {
		out, ok := domain.Coerce(value.Text(), kind)
		return out, value.Text(), ok
	}
	elems := value.Elems()
	out := make([]domain.Value, len(elems))
	for i, elem := range elems {
		coerced, ok := domain.Coerce(elem.Text(), kind)
		if !ok {
			return domain.Value{}, elem.Text(), false
		}
		out[i] = coerced
	}
	return domain.Vector(kind, out), "", true
}

// enrichCodeField resolves a code field against its reference table and
// reconciles the paired name field. Resolver failures are diagnostics, not
// aborts: an unknown code invalidates the field, an unreachable service
// leaves it unverifiable.
func (v *Validator) enrichCodeField(ctx context.Context, fields *domain.FieldMap, spec domain.FieldSpec, opts Options, asOf time.Time, em emitter) {
	code := fields.Text(spec.Name)

	var resolved, msg string
	var status domain.LookupStatus
	if spec.RefTable == domain.TablePlatforms && !asOf.IsZero() {
		// Platform names change over a vessel's life; resolve against the
		// registry as of the mission start.
		resolved, msg, status = v.refs.LookupPlatformAttribute(ctx, code, domain.RefColumnName, asOf)
	} else {
		resolved, msg, status = v.refs.Lookup(ctx, spec.RefTable, code, domain.RefColumnName)
	}

	switch status {
	case domain.LookupSuccess:
		if spec.NameField == "" {
			return
		}
		existing := fields.Text(spec.NameField)
		switch {
		case existing == "":
			fields.Set(spec.NameField, domain.String(resolved))
			em.emit(domain.SeverityInfo, "field %s: filled %s from %s", spec.Name, spec.NameField, spec.RefTable)
		case existing != resolved && opts.AddNames:
			fields.Set(spec.NameField, domain.String(resolved))
			em.emit(domain.SeverityCorrected, "field %s: replaced %s %q with resolved %q", spec.Name, spec.NameField, existing, resolved)
		case existing != resolved:
			em.emit(domain.SeverityUnverifiable, "field %s: supplied %s %q does not match resolved %q", spec.Name, spec.NameField, existing, resolved)
		}
	case domain.LookupNoMatch:
		em.emit(domain.SeverityFatal, "field %s: code %q not found in %s", spec.Name, code, spec.RefTable)
	case domain.LookupConnectivityError:
		em.emit(domain.SeverityUnverifiable, "field %s: %s", spec.Name, msg)
	case domain.LookupInvalidCall:
		em.emit(domain.SeverityUnverifiable, "field %s: reference lookup rejected: %s", spec.Name, msg)
	}
}
