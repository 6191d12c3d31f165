// Package schema compiles the per-level, per-context field legality tables
// into a SchemaProvider. Legality and type checks become static lookups
// instead of runtime name matching against a remote dictionary.
package schema

import (
	"oceancurate/pkg/domain"
)

// class places a field within one (level, context) table.
type class int

const (
	// absent: the field is illegal in this context.
	absent class = iota
	mandatory
	optional
	additional
)

// fieldDef declares one field once, with its class in each context.
type fieldDef struct {
	name      string
	kind      domain.Kind
	refTable  string
	nameField string
	imp       class
	exp       class
}

var missionFields = []fieldDef{
	{name: domain.FieldMissionType, kind: domain.KindString, refTable: domain.TableMissionTypes, imp: mandatory, exp: mandatory},
	{name: domain.FieldStartYear, kind: domain.KindInteger, imp: mandatory, exp: mandatory},
	{name: domain.FieldPlatform, kind: domain.KindString, refTable: domain.TablePlatforms, nameField: domain.FieldPlatformName, imp: mandatory, exp: mandatory},
	{name: domain.FieldPlatformName, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldMissionNumber, kind: domain.KindInteger, imp: mandatory, exp: mandatory},
	{name: domain.FieldMissionStartDate, kind: domain.KindDate, imp: mandatory, exp: mandatory},
	{name: domain.FieldMissionStopDate, kind: domain.KindDate, imp: optional, exp: mandatory},
	{name: domain.FieldChiefScientist, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldInstitute, kind: domain.KindString, refTable: domain.TableInstitutes, nameField: domain.FieldInstituteName, imp: optional, exp: mandatory},
	{name: domain.FieldInstituteName, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldDataCentre, kind: domain.KindString, refTable: domain.TableDataCentres, nameField: domain.FieldDataCentreName, imp: optional, exp: mandatory},
	{name: domain.FieldDataCentreName, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldCountry, kind: domain.KindString, refTable: domain.TableCountries, nameField: domain.FieldCountryName, imp: optional, exp: optional},
	{name: domain.FieldCountryName, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldComment, kind: domain.KindString, imp: additional, exp: additional},
}

var operationFields = []fieldDef{
	{name: domain.FieldOperationType, kind: domain.KindString, refTable: domain.TableOperationTypes, imp: mandatory, exp: mandatory},
	{name: domain.FieldOperationNumber, kind: domain.KindInteger, imp: mandatory, exp: mandatory},
	{name: domain.FieldTimeStart, kind: domain.KindDateTime, imp: mandatory, exp: mandatory},
	{name: domain.FieldTimeStartFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldTimeEnd, kind: domain.KindDateTime, imp: optional, exp: mandatory},
	{name: domain.FieldTimeEndFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldLongitudeStart, kind: domain.KindDecimal, imp: mandatory, exp: mandatory},
	{name: domain.FieldLongitudeStartFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldLongitudeEnd, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldLongitudeEndFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldLatitudeStart, kind: domain.KindDecimal, imp: mandatory, exp: mandatory},
	{name: domain.FieldLatitudeStartFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldLatitudeEnd, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldLatitudeEndFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldLogStart, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldLogEnd, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldBottomDepthStart, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldBottomDepthEnd, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldWindSpeed, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldWindDirection, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldAirTemperature, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldAirPressure, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldWaterTemperature, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldWaveHeight, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldCloudCover, kind: domain.KindDecimal, imp: optional, exp: optional},
	{name: domain.FieldComment, kind: domain.KindString, imp: additional, exp: additional},
}

var instrumentFields = []fieldDef{
	{name: domain.FieldInstrumentType, kind: domain.KindString, refTable: domain.TableInstruments, imp: mandatory, exp: mandatory},
	{name: domain.FieldInstrumentNumber, kind: domain.KindInteger, imp: mandatory, exp: mandatory},
	{name: domain.FieldInstrumentName, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldDescription, kind: domain.KindString, imp: additional, exp: additional},
}

var parameterFields = []fieldDef{
	{name: domain.FieldParameterCode, kind: domain.KindString, refTable: domain.TableParameters, imp: mandatory, exp: mandatory},
	{name: domain.FieldUnits, kind: domain.KindString, imp: mandatory, exp: mandatory},
	{name: domain.FieldOrdinal, kind: domain.KindInteger, imp: optional, exp: optional},
	// parameterId is assigned by the metadata database: optional on import,
	// mandatory on already-exported data.
	{name: domain.FieldParameterID, kind: domain.KindString, imp: optional, exp: mandatory},
	{name: domain.FieldParameterNumber, kind: domain.KindInteger, imp: optional, exp: optional},
	{name: domain.FieldSensorSerialNumber, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldReferenceScale, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldProcessingLevel, kind: domain.KindString, imp: optional, exp: optional},
	{name: domain.FieldMethod, kind: domain.KindString, imp: optional, exp: optional},
}

var readingFields = []fieldDef{
	{name: domain.FieldSampleIndex, kind: domain.KindInteger, imp: optional, exp: optional},
	// The value kind is declared per parameter, not per schema: KindUnknown
	// tells the validator to infer instead of coerce. Optional because a
	// missing sample is encoded as an empty value flagged missing.
	{name: domain.FieldValue, kind: domain.KindUnknown, imp: optional, exp: optional},
	{name: domain.FieldQualityFlag, kind: domain.KindString, refTable: domain.TableQualityFlags, imp: optional, exp: optional},
	{name: domain.FieldUncertainty, kind: domain.KindDecimal, imp: optional, exp: optional},
}

var levelFields = map[domain.Level][]fieldDef{
	domain.LevelMission:    missionFields,
	domain.LevelOperation:  operationFields,
	domain.LevelInstrument: instrumentFields,
	domain.LevelParameter:  parameterFields,
	domain.LevelReading:    readingFields,
}
