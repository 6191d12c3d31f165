// Package domain defines the mission aggregate tree, the canonical value
// kinds, diagnostics, and the provider interfaces consumed by the curation
// engines.
package domain

import (
	"fmt"
	"strings"
)

// Level identifies one tier of the mission hierarchy.
type Level string

// Hierarchy levels, outermost first.
const (
	LevelMission    Level = "mission"
	LevelOperation  Level = "operation"
	LevelInstrument Level = "instrument"
	LevelParameter  Level = "parameter"
	LevelReading    Level = "reading"
)

// Well-known mission-level field names.
const (
	FieldMissionType      = "missionType"
	FieldStartYear        = "startYear"
	FieldPlatform         = "platform"
	FieldPlatformName     = "platformName"
	FieldMissionNumber    = "missionNumber"
	FieldMissionStartDate = "missionStartDate"
	FieldMissionStopDate  = "missionStopDate"
	FieldChiefScientist   = "chiefScientist"
	FieldInstitute        = "institute"
	FieldInstituteName    = "instituteName"
	FieldDataCentre       = "dataCentre"
	FieldDataCentreName   = "dataCentreName"
	FieldCountry          = "country"
	FieldCountryName      = "countryName"
	FieldComment          = "comment"
)

// Well-known operation-level field names.
const (
	FieldOperationType      = "operationType"
	FieldOperationNumber    = "operationNumber"
	FieldTimeStart          = "timeStart"
	FieldTimeStartFlag      = "timeStartFlag"
	FieldTimeEnd            = "timeEnd"
	FieldTimeEndFlag        = "timeEndFlag"
	FieldLongitudeStart     = "longitudeStart"
	FieldLongitudeStartFlag = "longitudeStartFlag"
	FieldLongitudeEnd       = "longitudeEnd"
	FieldLongitudeEndFlag   = "longitudeEndFlag"
	FieldLatitudeStart      = "latitudeStart"
	FieldLatitudeStartFlag  = "latitudeStartFlag"
	FieldLatitudeEnd        = "latitudeEnd"
	FieldLatitudeEndFlag    = "latitudeEndFlag"
	FieldLogStart           = "logStart"
	FieldLogEnd             = "logEnd"
	FieldBottomDepthStart   = "bottomDepthStart"
	FieldBottomDepthEnd     = "bottomDepthEnd"
	FieldWindSpeed          = "windSpeed"
	FieldWindDirection      = "windDirection"
	FieldAirTemperature     = "airTemperature"
	FieldAirPressure        = "airPressure"
	FieldWaterTemperature   = "waterTemperature"
	FieldWaveHeight         = "waveHeight"
	FieldCloudCover         = "cloudCover"
)

// Well-known instrument-level field names.
const (
	FieldInstrumentType   = "instrumentType"
	FieldInstrumentNumber = "instrumentNumber"
	FieldInstrumentName   = "instrumentName"
	FieldDescription      = "description"
)

// Well-known parameter-level field names.
const (
	FieldParameterCode      = "parameterCode"
	FieldUnits              = "units"
	FieldOrdinal            = "ordinal"
	FieldParameterID        = "parameterId"
	FieldParameterNumber    = "parameterNumber"
	FieldSensorSerialNumber = "sensorSerialNumber"
	FieldReferenceScale     = "referenceScale"
	FieldProcessingLevel    = "processingLevel"
	FieldMethod             = "method"
)

// Well-known reading-level field names.
const (
	FieldSampleIndex = "sampleIndex"
	FieldValue       = "value"
	FieldQualityFlag = "qualityFlag"
	FieldUncertainty = "uncertainty"
)

// Quality flag codes. The full codeset lives in the quality_flags reference
// table; these two carry defaulting semantics in the validator.
const (
	// QualityFlagNone marks a present but unreviewed sample.
	QualityFlagNone = "0"
	// QualityFlagMissing marks a missing-data sample.
	QualityFlagMissing = "9"
)

// ProcessingLevelRaw is the lowest processing level, defaulted onto
// parameters whose readings carry no flag above unflagged/missing.
const ProcessingLevelRaw = "0"

// DefaultAnchorParameter is the parameter code used to jointly re-sort an
// instrument's readings when no sample index exists anywhere in it.
const DefaultAnchorParameter = "PRES"

// PropertyEntry is one open-ended (code, value) extension attached at any
// hierarchy level. Codes are validated against a level-specific property
// type table.
type PropertyEntry struct {
	Code  string `json:"code"`
	Value Value  `json:"value"`
}

// Mission is the top-level aggregate for one cruise or deployment. Operation
// order is load-bearing: later entries are more recent.
type Mission struct {
	Fields     FieldMap        `json:"fields"`
	Properties []PropertyEntry `json:"properties,omitempty"`
	Operations []Operation     `json:"operations,omitempty"`
}

// Operation is one discrete sampling event within a mission.
type Operation struct {
	Fields      FieldMap        `json:"fields"`
	Properties  []PropertyEntry `json:"properties,omitempty"`
	Instruments []Instrument    `json:"instruments,omitempty"`
}

// Instrument is one sensor package deployed during an operation.
type Instrument struct {
	Fields     FieldMap        `json:"fields"`
	Properties []PropertyEntry `json:"properties,omitempty"`
	Parameters []Parameter     `json:"parameters,omitempty"`
}

// Parameter is one measured quantity. Before merge its readings are N
// single-sample records; after merge a single record holds parallel vectors.
type Parameter struct {
	Fields     FieldMap        `json:"fields"`
	Properties []PropertyEntry `json:"properties,omitempty"`
	Readings   []Reading       `json:"readings,omitempty"`
}

// Reading holds one sample (or, after merge, all samples) of a parameter.
type Reading struct {
	Fields FieldMap `json:"fields"`
}

// IsEmpty reports whether the mission carries no fields and no children. The
// validator returns an empty mission when fatal defects nullify the outcome.
func (m *Mission) IsEmpty() bool {
	return m.Fields.Len() == 0 && len(m.Properties) == 0 && len(m.Operations) == 0
}

// StartYear returns the mission start year, or 0 when absent or non-integer.
func (m *Mission) StartYear() int64 {
	v, ok := m.Fields.Get(FieldStartYear)
	if !ok || v.Kind() != KindInteger {
		if c, okc := Coerce(v.Text(), KindInteger); okc {
			return c.Int()
		}
		return 0
	}
	return v.Int()
}

// MissionNumber returns the mission number, or 0 when absent.
func (m *Mission) MissionNumber() int64 {
	if c, ok := Coerce(m.Fields.Text(FieldMissionNumber), KindInteger); ok {
		return c.Int()
	}
	return 0
}

// Key derives the identity key used by mission stores:
// missionType/startYear/platform/missionNumber.
func (m *Mission) Key() string {
	parts := []string{
		m.Fields.Text(FieldMissionType),
		m.Fields.Text(FieldStartYear),
		m.Fields.Text(FieldPlatform),
		m.Fields.Text(FieldMissionNumber),
	}
	return strings.Join(parts, "/")
}

// OperationNumber returns the operation number, or 0 when absent.
func (o *Operation) OperationNumber() int64 {
	if c, ok := Coerce(o.Fields.Text(FieldOperationNumber), KindInteger); ok {
		return c.Int()
	}
	return 0
}

// Code returns the parameter code.
func (p *Parameter) Code() string { return p.Fields.Text(FieldParameterCode) }

// Units returns the parameter units.
func (p *Parameter) Units() string { return p.Fields.Text(FieldUnits) }

// Merged reports whether the parameter holds one vectorized reading.
func (p *Parameter) Merged() bool {
	if len(p.Readings) != 1 {
		return false
	}
	for _, name := range p.Readings[0].Fields.Names() {
		if v, _ := p.Readings[0].Fields.Get(name); v.IsVector() {
			return true
		}
	}
	return false
}

// SampleCount returns the number of samples the parameter carries: the
// vector length when merged, the record count otherwise.
func (p *Parameter) SampleCount() int {
	if len(p.Readings) == 1 {
		for _, name := range p.Readings[0].Fields.Names() {
			if v, _ := p.Readings[0].Fields.Get(name); v.IsVector() {
				return v.Len()
			}
		}
	}
	return len(p.Readings)
}

// Clone returns a deep copy of the mission tree.
func (m *Mission) Clone() Mission {
	out := Mission{Fields: m.Fields.Clone(), Properties: cloneProperties(m.Properties)}
	if m.Operations != nil {
		out.Operations = make([]Operation, len(m.Operations))
		for i := range m.Operations {
			out.Operations[i] = m.Operations[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the operation subtree.
func (o *Operation) Clone() Operation {
	out := Operation{Fields: o.Fields.Clone(), Properties: cloneProperties(o.Properties)}
	if o.Instruments != nil {
		out.Instruments = make([]Instrument, len(o.Instruments))
		for i := range o.Instruments {
			out.Instruments[i] = o.Instruments[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the instrument subtree.
func (in *Instrument) Clone() Instrument {
	out := Instrument{Fields: in.Fields.Clone(), Properties: cloneProperties(in.Properties)}
	if in.Parameters != nil {
		out.Parameters = make([]Parameter, len(in.Parameters))
		for i := range in.Parameters {
			out.Parameters[i] = in.Parameters[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the parameter subtree.
func (p *Parameter) Clone() Parameter {
	out := Parameter{Fields: p.Fields.Clone(), Properties: cloneProperties(p.Properties)}
	if p.Readings != nil {
		out.Readings = make([]Reading, len(p.Readings))
		for i := range p.Readings {
			out.Readings[i] = Reading{Fields: p.Readings[i].Fields.Clone()}
		}
	}
	return out
}

func cloneProperties(in []PropertyEntry) []PropertyEntry {
	if in == nil {
		return nil
	}
	out := make([]PropertyEntry, len(in))
	copy(out, in)
	return out
}

// ErrNotFound is returned by mission stores when no aggregate exists for the
// requested key.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("mission %s not found", e.Key)
}
