package domain

// Context selects which schema applies: records being prepared for import
// into the metadata database, or records already exported from it.
type Context string

// Schema contexts.
const (
	ContextImport Context = "import"
	ContextExport Context = "export"
)

// FieldSpec describes one legal field at a hierarchy level.
type FieldSpec struct {
	// Name is the field name as it appears in the record.
	Name string
	// Kind is the declared canonical value kind.
	Kind Kind
	// RefTable names the reference table backing a code field, empty when
	// the field is not code-valued.
	RefTable string
	// NameField is the paired human-readable field enriched from RefTable.
	NameField string
}

// FieldSet is the compiled legality table for one (level, context) pair.
type FieldSet struct {
	// Mandatory fields must be present and non-empty.
	Mandatory []FieldSpec
	// Optional fields may be absent.
	Optional []FieldSpec
	// Additional fields are legal free-form extras (e.g. local annotations).
	Additional []FieldSpec
}

// Spec looks up the specification for a field name across all three
// classes.
func (s FieldSet) Spec(name string) (FieldSpec, bool) {
	for _, group := range [][]FieldSpec{s.Mandatory, s.Optional, s.Additional} {
		for _, spec := range group {
			if spec.Name == name {
				return spec, true
			}
		}
	}
	return FieldSpec{}, false
}

// Legal reports whether the field name belongs to the set.
func (s FieldSet) Legal(name string) bool {
	_, ok := s.Spec(name)
	return ok
}

// SchemaProvider supplies, per hierarchy level and context, the set of legal
// field names, their value kinds, and which are mandatory. Implementations
// are stateless read interfaces from the engines' point of view.
type SchemaProvider interface {
	FieldsFor(level Level, ctx Context) (FieldSet, error)
}
