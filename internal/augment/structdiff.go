package augment

import (
	"oceancurate/pkg/domain"
)

// Ignore sets for the shell comparisons. Each level strips the fields that
// legitimately differ between an archived aggregate and a fresh fragment of
// the same deployment: assigned numbers and derived temporal bounds.
var (
	missionShellIgnore = map[string]bool{
		domain.FieldMissionNumber:    true,
		domain.FieldMissionStartDate: true,
		domain.FieldMissionStopDate:  true,
	}
	operationShellIgnore = map[string]bool{
		domain.FieldOperationNumber: true,
		domain.FieldTimeStart:       true,
		domain.FieldTimeStartFlag:   true,
		domain.FieldTimeEnd:         true,
		domain.FieldTimeEndFlag:     true,
	}
	instrumentShellIgnore = map[string]bool{
		domain.FieldInstrumentNumber: true,
	}
	parameterShellIgnore = map[string]bool{
		domain.FieldParameterNumber: true,
	}
)

// missionShellDiffers compares the mission-level fields that establish
// identity, with the per-deployment fields stripped.
func missionShellDiffers(a, b *domain.Mission) bool {
	return !a.Fields.Equal(&b.Fields, missionShellIgnore) ||
		!propertiesEqual(a.Properties, b.Properties)
}

func operationShellDiffers(a, b *domain.Operation) bool {
	return !a.Fields.Equal(&b.Fields, operationShellIgnore) ||
		!propertiesEqual(a.Properties, b.Properties)
}

func instrumentShellDiffers(a, b *domain.Instrument) bool {
	return !a.Fields.Equal(&b.Fields, instrumentShellIgnore) ||
		!propertiesEqual(a.Properties, b.Properties)
}

func parameterShellDiffers(a, b *domain.Parameter) bool {
	return !a.Fields.Equal(&b.Fields, parameterShellIgnore) ||
		!propertiesEqual(a.Properties, b.Properties)
}

// missionsIdentical is the full deep comparison, nothing ignored. NaN-aware
// value equality comes from the value comparator, so two missing samples
// compare equal.
func missionsIdentical(a, b *domain.Mission) bool {
	if !a.Fields.Equal(&b.Fields, nil) || !propertiesEqual(a.Properties, b.Properties) {
		return false
	}
	if len(a.Operations) != len(b.Operations) {
		return false
	}
	for i := range a.Operations {
		if !operationsIdentical(&a.Operations[i], &b.Operations[i]) {
			return false
		}
	}
	return true
}

func operationsIdentical(a, b *domain.Operation) bool {
	if !a.Fields.Equal(&b.Fields, nil) || !propertiesEqual(a.Properties, b.Properties) {
		return false
	}
	if len(a.Instruments) != len(b.Instruments) {
		return false
	}
	for i := range a.Instruments {
		if !instrumentsIdentical(&a.Instruments[i], &b.Instruments[i]) {
			return false
		}
	}
	return true
}

func instrumentsIdentical(a, b *domain.Instrument) bool {
	if !a.Fields.Equal(&b.Fields, nil) || !propertiesEqual(a.Properties, b.Properties) {
		return false
	}
	if len(a.Parameters) != len(b.Parameters) {
		return false
	}
	for i := range a.Parameters {
		if !parametersIdentical(&a.Parameters[i], &b.Parameters[i]) {
			return false
		}
	}
	return true
}

func parametersIdentical(a, b *domain.Parameter) bool {
	if !a.Fields.Equal(&b.Fields, nil) || !propertiesEqual(a.Properties, b.Properties) {
		return false
	}
	if len(a.Readings) != len(b.Readings) {
		return false
	}
	for i := range a.Readings {
		if !a.Readings[i].Fields.Equal(&b.Readings[i].Fields, nil) {
			return false
		}
	}
	return true
}

func propertiesEqual(a, b []domain.PropertyEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Code != b[i].Code || !a[i].Value.Equal(b[i].Value) {
			return false
		}
	}
	return true
}
