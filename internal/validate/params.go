package validate

import (
	"fmt"
	"sort"

	"oceancurate/pkg/domain"
)

// TestSelector picks which parameter consistency tests run. Tests are
// independently selectable so import-only data can skip the parameterId
// test (ids are assigned by the metadata database).
type TestSelector uint

// Parameter consistency tests.
const (
	TestParameterCode TestSelector = 1 << iota
	TestUnits
	TestParameterID
	TestOrdinal
	TestSerial
)

// TestAll selects every consistency test.
const TestAll = TestParameterCode | TestUnits | TestParameterID | TestOrdinal | TestSerial

// CheckStatus summarises a consistency check run.
type CheckStatus int

// Check outcomes. CheckFatal means identity tests failed and further testing
// was halted; CheckWarning means uniqueness defects were found but the
// caller decides how severe they are.
const (
	CheckOK CheckStatus = iota
	CheckWarning
	CheckFatal
)

// paramRow projects a parameter to its identity fields for uniqueness tests.
type paramRow struct {
	index   int
	id      string
	code    string
	units   string
	ordinal string
	serial  string
	scale   string
}

// CheckParameters cross-checks all parameters within one instrument for
// identity and uniqueness violations. An empty parameterCode or units is
// fatal and halts the remaining tests for the instrument.
func CheckParameters(inst *domain.Instrument, sel TestSelector) ([]string, CheckStatus) {
	var msgs []string

	if sel&TestParameterCode != 0 {
		for i := range inst.Parameters {
			if inst.Parameters[i].Fields.Empty(domain.FieldParameterCode) {
				msgs = append(msgs, fmt.Sprintf("parameter %d: parameterCode is empty", i+1))
			}
		}
	}
	if sel&TestUnits != 0 {
		for i := range inst.Parameters {
			if inst.Parameters[i].Fields.Empty(domain.FieldUnits) {
				msgs = append(msgs, fmt.Sprintf("parameter %d (%s): units is empty",
					i+1, inst.Parameters[i].Code()))
			}
		}
	}
	if len(msgs) > 0 {
		return msgs, CheckFatal
	}

	rows := make([]paramRow, 0, len(inst.Parameters))
	for i := range inst.Parameters {
		p := &inst.Parameters[i]
		rows = append(rows, paramRow{
			index:   i,
			id:      p.Fields.Text(domain.FieldParameterID),
			code:    p.Code(),
			units:   p.Units(),
			ordinal: p.Fields.Text(domain.FieldOrdinal),
			serial:  p.Fields.Text(domain.FieldSensorSerialNumber),
			scale:   p.Fields.Text(domain.FieldReferenceScale),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	if sel&TestParameterID != 0 {
		seen := make(map[string]string, len(rows))
		for _, row := range rows {
			if row.id == "" {
				msgs = append(msgs, fmt.Sprintf("parameter %s: parameterId is not populated", row.code))
				continue
			}
			if prev, dup := seen[row.id]; dup {
				msgs = append(msgs, fmt.Sprintf("parameterId %s shared by %s and %s", row.id, prev, row.code))
				continue
			}
			seen[row.id] = row.code
		}
	}

	if sel&TestOrdinal != 0 {
		seen := make(map[[2]string]bool, len(rows))
		for _, row := range rows {
			key := [2]string{row.code, row.ordinal}
			if seen[key] {
				msgs = append(msgs, fmt.Sprintf("parameter %s: duplicate (parameterCode, ordinal) pair (ordinal %q)", row.code, row.ordinal))
				continue
			}
			seen[key] = true
		}
	}

	if sel&TestSerial != 0 {
		seen := make(map[[4]string]bool, len(rows))
		for _, row := range rows {
			if row.serial == "" {
				continue
			}
			key := [4]string{row.code, row.units, row.serial, row.scale}
			if seen[key] {
				msgs = append(msgs, fmt.Sprintf("parameter %s: sensor serial %s recorded twice for (%s, %s)", row.code, row.serial, row.units, row.scale))
				continue
			}
			seen[key] = true
		}
	}

	if len(msgs) > 0 {
		return msgs, CheckWarning
	}
	return nil, CheckOK
}
