package domain

// FieldMap is an insertion-ordered mapping from field name to Value. Records
// arrive from external sources with arbitrary field sets, so every hierarchy
// level carries its open content in a FieldMap; the compiled schema tables
// decide which names are legal. Iteration order is deterministic (insertion
// order) to keep diagnostics reproducible.
type FieldMap struct {
	names  []string
	values map[string]Value
}

// Set stores a value under name, appending the name on first use.
func (f *FieldMap) Set(name string, v Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = v
}

// Get returns the value stored under name.
func (f *FieldMap) Get(name string) (Value, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Delete removes a field, reporting whether it was present.
func (f *FieldMap) Delete(name string) bool {
	if _, ok := f.values[name]; !ok {
		return false
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the field names in insertion order.
func (f *FieldMap) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of fields.
func (f *FieldMap) Len() int { return len(f.names) }

// Clone returns a deep copy.
func (f *FieldMap) Clone() FieldMap {
	var out FieldMap
	for _, name := range f.names {
		out.Set(name, f.values[name])
	}
	return out
}

// Text returns the canonical textual form of a field, or "" when absent.
func (f *FieldMap) Text(name string) string {
	v, ok := f.values[name]
	if !ok {
		return ""
	}
	return v.Text()
}

// Empty reports whether the field is absent or carries no data.
func (f *FieldMap) Empty(name string) bool {
	v, ok := f.values[name]
	return !ok || v.IsEmpty()
}

// Equal compares two field maps, skipping names present in ignore. A field
// absent on one side and empty on the other still compares unequal; only
// name-for-name value equality (NaN-aware) passes.
func (f *FieldMap) Equal(other *FieldMap, ignore map[string]bool) bool {
	for _, name := range f.names {
		if ignore[name] {
			continue
		}
		ov, ok := other.values[name]
		if !ok {
			return false
		}
		if !f.values[name].Equal(ov) {
			return false
		}
	}
	for _, name := range other.names {
		if ignore[name] {
			continue
		}
		if _, ok := f.values[name]; !ok {
			return false
		}
	}
	return true
}
