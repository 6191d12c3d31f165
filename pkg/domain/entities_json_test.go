package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func sampleMission(t *testing.T) Mission {
	t.Helper()
	var m Mission
	m.Fields.Set(FieldMissionType, String("RV"))
	m.Fields.Set(FieldStartYear, Integer(2024))
	m.Fields.Set(FieldPlatform, String("18HU"))
	m.Fields.Set(FieldMissionNumber, Integer(7))
	m.Fields.Set(FieldMissionStartDate, Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	m.Properties = []PropertyEntry{{Code: "PROJ", Value: String("AZMP")}}

	var op Operation
	op.Fields.Set(FieldOperationType, String("CTD"))
	op.Fields.Set(FieldOperationNumber, Integer(1))

	var inst Instrument
	inst.Fields.Set(FieldInstrumentType, String("SBE911"))
	inst.Fields.Set(FieldInstrumentNumber, Integer(1))

	var par Parameter
	par.Fields.Set(FieldParameterCode, String("TEMP"))
	par.Fields.Set(FieldUnits, String("degC"))

	var rd Reading
	rd.Fields.Set(FieldSampleIndex, Integer(1))
	rd.Fields.Set(FieldValue, Decimal(4.18))
	rd.Fields.Set(FieldQualityFlag, String("1"))
	par.Readings = []Reading{rd}

	inst.Parameters = []Parameter{par}
	op.Instruments = []Instrument{inst}
	m.Operations = []Operation{op}
	return m
}

func TestMissionJSONRoundTrip(t *testing.T) {
	m := sampleMission(t)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal mission: %v", err)
	}
	var back Mission
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal mission: %v", err)
	}
	if back.Fields.Text(FieldPlatform) != "18HU" {
		t.Fatalf("platform lost in round trip")
	}
	if y := back.StartYear(); y != 2024 {
		t.Fatalf("start year = %d, want 2024", y)
	}
	if len(back.Operations) != 1 || len(back.Operations[0].Instruments) != 1 {
		t.Fatalf("operation tree lost in round trip")
	}
	rd := back.Operations[0].Instruments[0].Parameters[0].Readings[0]
	if v, _ := rd.Fields.Get(FieldValue); v.Float() != 4.18 {
		t.Fatalf("reading value = %v, want 4.18", v.Float())
	}
}

func TestMissionJSONFieldOrderPreserved(t *testing.T) {
	payload := []byte(`{"fields":{"zeta":"1","alpha":"2","mid":"3"}}`)
	var m Mission
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	names := m.Fields.Names()
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field order = %v, want %v", names, want)
		}
	}
}

func TestValueJSONMissingDecimal(t *testing.T) {
	data, err := json.Marshal(Decimal(math.NaN()))
	if err != nil {
		t.Fatalf("marshal NaN: %v", err)
	}
	if string(data) != "null" {
		t.Fatalf("NaN should marshal to null, got %s", data)
	}
	var v Value
	if err := json.Unmarshal([]byte("null"), &v); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !math.IsNaN(v.Float()) {
		t.Fatalf("null should hydrate as missing decimal")
	}
}

func TestValueJSONVector(t *testing.T) {
	vec := Vector(KindDecimal, []Value{Decimal(1.5), Decimal(math.NaN()), Decimal(3)})
	data, err := json.Marshal(vec)
	if err != nil {
		t.Fatalf("marshal vector: %v", err)
	}
	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal vector: %v", err)
	}
	if !back.IsVector() || back.Len() != 3 {
		t.Fatalf("vector shape lost: len=%d", back.Len())
	}
	if !back.Index(1).Equal(Decimal(math.NaN())) {
		t.Fatalf("missing sample lost in round trip")
	}
}

func TestMissionKey(t *testing.T) {
	m := sampleMission(t)
	if got, want := m.Key(), "RV/2024/18HU/7"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestMissionCloneIsDeep(t *testing.T) {
	m := sampleMission(t)
	cp := m.Clone()
	cp.Operations[0].Fields.Set(FieldOperationType, String("NET"))
	cp.Fields.Set(FieldPlatform, String("XXXX"))
	if m.Operations[0].Fields.Text(FieldOperationType) != "CTD" {
		t.Fatalf("clone mutation leaked into operation")
	}
	if m.Fields.Text(FieldPlatform) != "18HU" {
		t.Fatalf("clone mutation leaked into mission fields")
	}
}

func TestParameterMergedAndSampleCount(t *testing.T) {
	var p Parameter
	p.Fields.Set(FieldParameterCode, String("TEMP"))
	var r1, r2 Reading
	r1.Fields.Set(FieldValue, Decimal(1))
	r2.Fields.Set(FieldValue, Decimal(2))
	p.Readings = []Reading{r1, r2}
	if p.Merged() {
		t.Fatalf("two scalar readings should not report merged")
	}
	if p.SampleCount() != 2 {
		t.Fatalf("sample count = %d, want 2", p.SampleCount())
	}

	var merged Reading
	merged.Fields.Set(FieldValue, Vector(KindDecimal, []Value{Decimal(1), Decimal(2), Decimal(3)}))
	p.Readings = []Reading{merged}
	if !p.Merged() {
		t.Fatalf("vectorized reading should report merged")
	}
	if p.SampleCount() != 3 {
		t.Fatalf("merged sample count = %d, want 3", p.SampleCount())
	}
}
