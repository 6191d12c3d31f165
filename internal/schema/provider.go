package schema

import (
	"fmt"

	"oceancurate/pkg/domain"
)

// Compile-time contract assertion ensuring the provider satisfies the domain interface.
var _ domain.SchemaProvider = (*Provider)(nil)

// Provider answers field legality queries from the compiled tables. The
// tables are built once at construction; FieldsFor returns copies so callers
// cannot corrupt the compiled state.
type Provider struct {
	sets map[domain.Level]map[domain.Context]domain.FieldSet
}

// NewProvider compiles the built-in field tables.
func NewProvider() *Provider {
	sets := make(map[domain.Level]map[domain.Context]domain.FieldSet, len(levelFields))
	for level, defs := range levelFields {
		sets[level] = map[domain.Context]domain.FieldSet{
			domain.ContextImport: compile(defs, domain.ContextImport),
			domain.ContextExport: compile(defs, domain.ContextExport),
		}
	}
	return &Provider{sets: sets}
}

// FieldsFor returns the compiled field set for a level and context.
func (p *Provider) FieldsFor(level domain.Level, ctx domain.Context) (domain.FieldSet, error) {
	byCtx, ok := p.sets[level]
	if !ok {
		return domain.FieldSet{}, fmt.Errorf("schema: unknown level %q", level)
	}
	set, ok := byCtx[ctx]
	if !ok {
		return domain.FieldSet{}, fmt.Errorf("schema: unknown context %q", ctx)
	}
	return copySet(set), nil
}

func compile(defs []fieldDef, ctx domain.Context) domain.FieldSet {
	var set domain.FieldSet
	for _, def := range defs {
		cls := def.imp
		if ctx == domain.ContextExport {
			cls = def.exp
		}
		spec := domain.FieldSpec{
			Name:      def.name,
			Kind:      def.kind,
			RefTable:  def.refTable,
			NameField: def.nameField,
		}
		switch cls {
		case mandatory:
			set.Mandatory = append(set.Mandatory, spec)
		case optional:
			set.Optional = append(set.Optional, spec)
		case additional:
			set.Additional = append(set.Additional, spec)
		}
	}
	return set
}

func copySet(in domain.FieldSet) domain.FieldSet {
	out := domain.FieldSet{
		Mandatory:  make([]domain.FieldSpec, len(in.Mandatory)),
		Optional:   make([]domain.FieldSpec, len(in.Optional)),
		Additional: make([]domain.FieldSpec, len(in.Additional)),
	}
	copy(out.Mandatory, in.Mandatory)
	copy(out.Optional, in.Optional)
	copy(out.Additional, in.Additional)
	return out
}
