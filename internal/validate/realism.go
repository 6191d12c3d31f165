package validate

import (
	"math"
	"time"

	"oceancurate/pkg/domain"
)

// Environmental plausibility limits. Values outside these ranges cannot be
// confirmed wrong from the record alone, so they report as unverifiable
// rather than fatal.
type numericRange struct {
	field    string
	min, max float64
}

var operationEnvRanges = []numericRange{
	{domain.FieldLogStart, 0, 100000},
	{domain.FieldLogEnd, 0, 100000},
	{domain.FieldBottomDepthStart, 0, 12000},
	{domain.FieldBottomDepthEnd, 0, 12000},
	{domain.FieldWindSpeed, 0, 120},
	{domain.FieldWindDirection, 0, 360},
	{domain.FieldAirTemperature, -60, 60},
	{domain.FieldAirPressure, 850, 1100},
	{domain.FieldWaterTemperature, -3, 45},
	{domain.FieldWaveHeight, 0, 35},
	{domain.FieldCloudCover, 0, 8},
}

// minPlausibleYear bounds mission and operation dates from below. Records
// older than the instrumental oceanographic era indicate data-entry errors.
const minPlausibleYear = 1900

// checkMissionRealism verifies the mission dates are plausible and ordered.
func checkMissionRealism(m *domain.Mission, now time.Time, em emitter) {
	start := checkPlausibleDate(&m.Fields, domain.FieldMissionStartDate, now, em)
	stop := checkPlausibleDate(&m.Fields, domain.FieldMissionStopDate, now, em)
	if !start.IsZero() && !stop.IsZero() && stop.Before(start) {
		em.emit(domain.SeverityFatal, "missionStopDate %s precedes missionStartDate %s",
			stop.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}

	if year := m.StartYear(); year != 0 && !start.IsZero() && int64(start.Year()) != year {
		em.emit(domain.SeverityUnverifiable, "startYear %d disagrees with missionStartDate year %d",
			year, start.Year())
	}
}

// checkOperationRealism verifies operation times, positions, and
// environmental observations. Bad times and positions are fatal because the
// downstream archive keys on them; environmental outliers only warn.
func checkOperationRealism(op *domain.Operation, now time.Time, em emitter) {
	start := checkPlausibleDate(&op.Fields, domain.FieldTimeStart, now, em)
	end := checkPlausibleDate(&op.Fields, domain.FieldTimeEnd, now, em)
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		em.emit(domain.SeverityFatal, "timeEnd %s precedes timeStart %s",
			end.Format(domain.DateTimeLayout), start.Format(domain.DateTimeLayout))
	}

	checkCoordinate(&op.Fields, domain.FieldLongitudeStart, 180, em)
	checkCoordinate(&op.Fields, domain.FieldLongitudeEnd, 180, em)
	checkCoordinate(&op.Fields, domain.FieldLatitudeStart, 90, em)
	checkCoordinate(&op.Fields, domain.FieldLatitudeEnd, 90, em)

	for _, r := range operationEnvRanges {
		v, ok := op.Fields.Get(r.field)
		if !ok || v.IsEmpty() {
			continue
		}
		f := v.Float()
		if math.IsNaN(f) {
			continue
		}
		if f < r.min || f > r.max {
			em.emit(domain.SeverityUnverifiable, "%s %g outside plausible range [%g, %g]",
				r.field, f, r.min, r.max)
		}
	}
}

// checkPlausibleDate reports dates before the plausible era or in the future
// as fatal and returns the parsed time, zero when absent or unparsed.
func checkPlausibleDate(fields *domain.FieldMap, name string, now time.Time, em emitter) time.Time {
	v, ok := fields.Get(name)
	if !ok || v.IsEmpty() {
		return time.Time{}
	}
	ts := v.Time()
	if ts.IsZero() {
		return time.Time{}
	}
	if ts.Year() < minPlausibleYear {
		em.emit(domain.SeverityFatal, "%s %s predates %d", name, v.Text(), minPlausibleYear)
	}
	if ts.After(now) {
		em.emit(domain.SeverityFatal, "%s %s is in the future", name, v.Text())
	}
	return ts
}

func checkCoordinate(fields *domain.FieldMap, name string, limit float64, em emitter) {
	v, ok := fields.Get(name)
	if !ok || v.IsEmpty() {
		return
	}
	f := v.Float()
	if math.IsNaN(f) {
		return
	}
	if f < -limit || f > limit {
		em.emit(domain.SeverityFatal, "%s %g outside [%g, %g]", name, f, -limit, limit)
	}
}

// flagPairs lists the operation value fields that carry a paired quality
// flag.
var flagPairs = [][2]string{
	{domain.FieldTimeStart, domain.FieldTimeStartFlag},
	{domain.FieldTimeEnd, domain.FieldTimeEndFlag},
	{domain.FieldLongitudeStart, domain.FieldLongitudeStartFlag},
	{domain.FieldLongitudeEnd, domain.FieldLongitudeEndFlag},
	{domain.FieldLatitudeStart, domain.FieldLatitudeStartFlag},
	{domain.FieldLatitudeEnd, domain.FieldLatitudeEndFlag},
}

// fillOperationFlagDefaults assigns the unflagged code to every populated
// value field whose paired flag is empty.
func fillOperationFlagDefaults(op *domain.Operation, em emitter) {
	for _, pair := range flagPairs {
		value, flag := pair[0], pair[1]
		if op.Fields.Empty(value) || !op.Fields.Empty(flag) {
			continue
		}
		op.Fields.Set(flag, domain.String(domain.QualityFlagNone))
		em.emit(domain.SeverityInfo, "%s defaulted to %s", flag, domain.QualityFlagNone)
	}
}
