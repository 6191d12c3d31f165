package domain

import (
	"context"
	"time"
)

// LookupStatus classifies the outcome of a reference lookup.
type LookupStatus int

// Reference lookup outcomes. Connectivity failures are ordinary (if severe)
// diagnostic outcomes, not control-flow events.
const (
	LookupSuccess LookupStatus = iota
	LookupNoMatch
	LookupConnectivityError
	LookupInvalidCall
)

func (s LookupStatus) String() string {
	switch s {
	case LookupSuccess:
		return "success"
	case LookupNoMatch:
		return "no match"
	case LookupConnectivityError:
		return "connectivity error"
	case LookupInvalidCall:
		return "invalid call"
	default:
		return "unknown"
	}
}

// Reference table names used by the compiled schema.
const (
	TableMissionTypes   = "mission_types"
	TablePlatforms      = "platforms"
	TableInstitutes     = "institutes"
	TableDataCentres    = "data_centres"
	TableCountries      = "countries"
	TableOperationTypes = "operation_types"
	TableInstruments    = "instrument_types"
	TableParameters     = "parameter_codes"
	TableQualityFlags   = "quality_flags"
)

// RefColumnName is the default enrichment column: the human-readable name
// paired with a code.
const RefColumnName = "name"

// ReferenceResolver answers code lookups against external reference tables.
// Given a table and code it returns the enrichment value, a human-readable
// message, and a status. Implementations may be backed by caches or network
// calls; the engines tolerate arbitrary latency here.
type ReferenceResolver interface {
	Lookup(ctx context.Context, table, code, column string) (string, string, LookupStatus)
	// LookupPlatformAttribute resolves a platform registry attribute as of a
	// given date (platform names and ownership change over time).
	LookupPlatformAttribute(ctx context.Context, platformID, attribute string, asOf time.Time) (string, string, LookupStatus)
}

// PropertyTypeTable resolves the declared kind of an open-ended property
// code, and any enumerated domain restriction attached to it.
type PropertyTypeTable interface {
	ValueTypeFor(code string) (Kind, bool)
	// Domain returns the enumerated legal values for codes carrying a domain
	// restriction; ok is false when the code's values are unrestricted.
	Domain(code string) ([]string, bool)
}
