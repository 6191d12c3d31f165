package validate

import (
	"strings"
	"testing"

	"oceancurate/pkg/domain"
)

func instrumentWith(params ...map[string]string) *domain.Instrument {
	inst := &domain.Instrument{}
	for _, fields := range params {
		var p domain.Parameter
		for _, name := range []string{
			domain.FieldParameterCode,
			domain.FieldUnits,
			domain.FieldOrdinal,
			domain.FieldParameterID,
			domain.FieldSensorSerialNumber,
			domain.FieldReferenceScale,
		} {
			if value, present := fields[name]; present {
				p.Fields.Set(name, domain.String(value))
			}
		}
		inst.Parameters = append(inst.Parameters, p)
	}
	return inst
}

func TestCheckParametersClean(t *testing.T) {
	inst := instrumentWith(
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldParameterID: "101", domain.FieldOrdinal: "1"},
		map[string]string{domain.FieldParameterCode: "PSAL", domain.FieldUnits: "psu", domain.FieldParameterID: "102", domain.FieldOrdinal: "1"},
	)
	msgs, status := CheckParameters(inst, TestAll)
	if status != CheckOK || len(msgs) != 0 {
		t.Fatalf("clean instrument = (%v, %v)", msgs, status)
	}
}

func TestCheckParametersEmptyIdentityIsFatal(t *testing.T) {
	inst := instrumentWith(
		map[string]string{domain.FieldParameterCode: "", domain.FieldUnits: "degC"},
		map[string]string{domain.FieldParameterCode: "PSAL", domain.FieldUnits: ""},
	)
	msgs, status := CheckParameters(inst, TestAll)
	if status != CheckFatal {
		t.Fatalf("status = %v, want fatal", status)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want one per identity defect", msgs)
	}
	// Fatal identity defects halt the uniqueness tests.
	for _, msg := range msgs {
		if strings.Contains(msg, "duplicate") {
			t.Fatalf("uniqueness tests ran after a fatal identity defect: %q", msg)
		}
	}
}

func TestCheckParametersDuplicateOrdinal(t *testing.T) {
	inst := instrumentWith(
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldParameterID: "101", domain.FieldOrdinal: "1"},
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldParameterID: "102", domain.FieldOrdinal: "1"},
	)
	msgs, status := CheckParameters(inst, TestAll)
	if status != CheckWarning {
		t.Fatalf("status = %v, want warning", status)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "ordinal") {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestCheckParametersDuplicateID(t *testing.T) {
	inst := instrumentWith(
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldParameterID: "101", domain.FieldOrdinal: "1"},
		map[string]string{domain.FieldParameterCode: "PSAL", domain.FieldUnits: "psu", domain.FieldParameterID: "101", domain.FieldOrdinal: "1"},
	)
	msgs, status := CheckParameters(inst, TestAll)
	if status != CheckWarning {
		t.Fatalf("status = %v, want warning", status)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "parameterId 101") {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestCheckParametersUnpopulatedIDSkippable(t *testing.T) {
	inst := instrumentWith(
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldOrdinal: "1"},
	)

	msgs, status := CheckParameters(inst, TestAll)
	if status != CheckWarning || len(msgs) != 1 {
		t.Fatalf("full selection = (%v, %v), want the unpopulated-id warning", msgs, status)
	}

	msgs, status = CheckParameters(inst, TestAll&^TestParameterID)
	if status != CheckOK || len(msgs) != 0 {
		t.Fatalf("id test deselected = (%v, %v), want clean", msgs, status)
	}
}

func TestCheckParametersDuplicateSerial(t *testing.T) {
	inst := instrumentWith(
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldParameterID: "101", domain.FieldOrdinal: "1", domain.FieldSensorSerialNumber: "SN-42", domain.FieldReferenceScale: "ITS-90"},
		map[string]string{domain.FieldParameterCode: "TEMP", domain.FieldUnits: "degC", domain.FieldParameterID: "102", domain.FieldOrdinal: "2", domain.FieldSensorSerialNumber: "SN-42", domain.FieldReferenceScale: "ITS-90"},
	)
	msgs, status := CheckParameters(inst, TestAll)
	if status != CheckWarning {
		t.Fatalf("status = %v, want warning", status)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "SN-42") {
		t.Fatalf("messages = %v", msgs)
	}
}
