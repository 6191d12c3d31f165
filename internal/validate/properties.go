package validate

import (
	"oceancurate/pkg/domain"
)

// checkProperties validates a level's property list against the property
// type table and returns the cleaned list. Unknown codes are dropped; values
// that fail coercion or fall outside a restricted domain are blanked so the
// entry survives with its code intact.
func (v *Validator) checkProperties(list []domain.PropertyEntry, em emitter) []domain.PropertyEntry {
	if len(list) == 0 {
		return list
	}
	out := make([]domain.PropertyEntry, 0, len(list))
	for _, entry := range list {
		kind, known := v.props.ValueTypeFor(entry.Code)
		if !known {
			em.emit(domain.SeverityCorrected, "dropped property %s: code not in property table", entry.Code)
			continue
		}

		coerced, ok := domain.Coerce(entry.Value.Text(), kind)
		if !ok {
			em.emit(domain.SeverityCorrected, "property %s: value %q is not a valid %s, blanked",
				entry.Code, entry.Value.Text(), kind)
			entry.Value = domain.String("")
			out = append(out, entry)
			continue
		}
		entry.Value = coerced

		if allowed, restricted := v.props.Domain(entry.Code); restricted && !entry.Value.IsEmpty() {
			if !containsString(allowed, entry.Value.Text()) {
				em.emit(domain.SeverityCorrected, "property %s: value %q outside allowed set, blanked",
					entry.Code, entry.Value.Text())
				entry.Value = domain.String("")
			}
		}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Properties validates a standalone property list outside a full mission
// pass, for callers that curate property sets on their own.
func Properties(list []domain.PropertyEntry, table domain.PropertyTypeTable) ([]domain.PropertyEntry, domain.Report) {
	var report domain.Report
	v := &Validator{props: table}
	out := v.checkProperties(list, emitter{report: &report, prefix: "properties"})
	return out, report
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
