package schema

import (
	"testing"

	"oceancurate/pkg/domain"
)

func TestFieldsForMandatoryByContext(t *testing.T) {
	p := NewProvider()

	imp, err := p.FieldsFor(domain.LevelParameter, domain.ContextImport)
	if err != nil {
		t.Fatalf("import parameter fields: %v", err)
	}
	exp, err := p.FieldsFor(domain.LevelParameter, domain.ContextExport)
	if err != nil {
		t.Fatalf("export parameter fields: %v", err)
	}

	if contains(imp.Mandatory, domain.FieldParameterID) {
		t.Fatalf("parameterId must not be mandatory on import")
	}
	if !contains(exp.Mandatory, domain.FieldParameterID) {
		t.Fatalf("parameterId must be mandatory on export")
	}
	for _, set := range []domain.FieldSet{imp, exp} {
		if !contains(set.Mandatory, domain.FieldParameterCode) || !contains(set.Mandatory, domain.FieldUnits) {
			t.Fatalf("parameterCode and units must be mandatory in both contexts")
		}
	}
}

func TestFieldsForLegality(t *testing.T) {
	p := NewProvider()
	set, err := p.FieldsFor(domain.LevelMission, domain.ContextImport)
	if err != nil {
		t.Fatalf("mission fields: %v", err)
	}
	if !set.Legal(domain.FieldPlatform) {
		t.Fatalf("platform should be legal at mission level")
	}
	if set.Legal("instrumentType") {
		t.Fatalf("instrumentType must not be legal at mission level")
	}
	spec, ok := set.Spec(domain.FieldPlatform)
	if !ok || spec.RefTable != domain.TablePlatforms || spec.NameField != domain.FieldPlatformName {
		t.Fatalf("platform spec missing reference binding: %+v", spec)
	}
}

func TestFieldsForUnknownLevelAndContext(t *testing.T) {
	p := NewProvider()
	if _, err := p.FieldsFor(domain.Level("station"), domain.ContextImport); err == nil {
		t.Fatalf("unknown level should error")
	}
	if _, err := p.FieldsFor(domain.LevelMission, domain.Context("archive")); err == nil {
		t.Fatalf("unknown context should error")
	}
}

func TestFieldsForReturnsCopies(t *testing.T) {
	p := NewProvider()
	set, _ := p.FieldsFor(domain.LevelMission, domain.ContextImport)
	set.Mandatory[0].Name = "tampered"
	again, _ := p.FieldsFor(domain.LevelMission, domain.ContextImport)
	if again.Mandatory[0].Name == "tampered" {
		t.Fatalf("FieldsFor must return copies of the compiled tables")
	}
}

func contains(specs []domain.FieldSpec, name string) bool {
	for _, s := range specs {
		if s.Name == name {
			return true
		}
	}
	return false
}
