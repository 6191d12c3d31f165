// Package refdata provides ReferenceResolver and PropertyTypeTable
// implementations: an in-memory static resolver for tests and ephemeral
// runs, an HTTP client for the live reference service, and a SQLite-backed
// offline snapshot.
package refdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"oceancurate/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.ReferenceResolver = (*StaticResolver)(nil)
	_ domain.PropertyTypeTable = (*StaticPropertyTypes)(nil)
)

// platformAttribute is one dated attribute row in the platform registry.
type platformAttribute struct {
	validFrom time.Time
	value     string
}

// StaticResolver serves lookups from in-memory tables. An empty resolver
// reports every lookup as invalid-call, so validation downgrades reference
// checks to unverifiable instead of rejecting records outright.
type StaticResolver struct {
	tables    map[string]map[string]map[string]string
	platforms map[string]map[string][]platformAttribute
}

// NewStaticResolver constructs an empty static resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{
		tables:    make(map[string]map[string]map[string]string),
		platforms: make(map[string]map[string][]platformAttribute),
	}
}

// Seed registers a (table, code, column) -> value row.
func (r *StaticResolver) Seed(table, code, column, value string) {
	if r.tables == nil {
		r.tables = make(map[string]map[string]map[string]string)
	}
	if r.tables[table] == nil {
		r.tables[table] = make(map[string]map[string]string)
	}
	if r.tables[table][code] == nil {
		r.tables[table][code] = make(map[string]string)
	}
	r.tables[table][code][column] = value
}

// SeedPlatformAttribute registers a dated platform registry attribute.
func (r *StaticResolver) SeedPlatformAttribute(platformID, attribute string, validFrom time.Time, value string) {
	if r.platforms == nil {
		r.platforms = make(map[string]map[string][]platformAttribute)
	}
	if r.platforms[platformID] == nil {
		r.platforms[platformID] = make(map[string][]platformAttribute)
	}
	rows := append(r.platforms[platformID][attribute], platformAttribute{validFrom: validFrom, value: value})
	sort.Slice(rows, func(i, j int) bool { return rows[i].validFrom.Before(rows[j].validFrom) })
	r.platforms[platformID][attribute] = rows
}

// Lookup resolves a code against a seeded table.
func (r *StaticResolver) Lookup(_ context.Context, table, code, column string) (string, string, domain.LookupStatus) {
	if table == "" || code == "" {
		return "", "table and code are required", domain.LookupInvalidCall
	}
	if column == "" {
		column = domain.RefColumnName
	}
	rows, ok := r.tables[table]
	if !ok {
		return "", fmt.Sprintf("unknown table %s", table), domain.LookupInvalidCall
	}
	cols, ok := rows[code]
	if !ok {
		return "", fmt.Sprintf("code %s not in %s", code, table), domain.LookupNoMatch
	}
	value, ok := cols[column]
	if !ok {
		return "", fmt.Sprintf("column %s not populated for %s/%s", column, table, code), domain.LookupNoMatch
	}
	return value, "ok", domain.LookupSuccess
}

// LookupPlatformAttribute resolves the attribute row in force at asOf.
func (r *StaticResolver) LookupPlatformAttribute(_ context.Context, platformID, attribute string, asOf time.Time) (string, string, domain.LookupStatus) {
	if platformID == "" || attribute == "" {
		return "", "platform and attribute are required", domain.LookupInvalidCall
	}
	if len(r.platforms) == 0 {
		return "", "platform registry not loaded", domain.LookupInvalidCall
	}
	attrs, ok := r.platforms[platformID]
	if !ok {
		return "", fmt.Sprintf("platform %s not registered", platformID), domain.LookupNoMatch
	}
	rows := attrs[attribute]
	var current string
	found := false
	for _, row := range rows {
		if asOf.IsZero() || !row.validFrom.After(asOf) {
			current = row.value
			found = true
		}
	}
	if !found {
		return "", fmt.Sprintf("no %s attribute in force for %s", attribute, platformID), domain.LookupNoMatch
	}
	return current, "ok", domain.LookupSuccess
}

// StaticPropertyTypes resolves property codes from in-memory tables.
type StaticPropertyTypes struct {
	kinds   map[string]domain.Kind
	domains map[string][]string
}

// NewStaticPropertyTypes constructs an empty property type table.
func NewStaticPropertyTypes() *StaticPropertyTypes {
	return &StaticPropertyTypes{
		kinds:   make(map[string]domain.Kind),
		domains: make(map[string][]string),
	}
}

// Define registers a property code with its declared kind.
func (t *StaticPropertyTypes) Define(code string, kind domain.Kind) {
	t.kinds[code] = kind
}

// Restrict attaches an enumerated domain to a property code.
func (t *StaticPropertyTypes) Restrict(code string, values ...string) {
	t.domains[code] = append([]string(nil), values...)
}

// ValueTypeFor returns the declared kind for a code.
func (t *StaticPropertyTypes) ValueTypeFor(code string) (domain.Kind, bool) {
	k, ok := t.kinds[code]
	return k, ok
}

// Domain returns the enumerated legal values for a restricted code.
func (t *StaticPropertyTypes) Domain(code string) ([]string, bool) {
	values, ok := t.domains[code]
	if !ok {
		return nil, false
	}
	return append([]string(nil), values...), true
}
