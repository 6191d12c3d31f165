package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"oceancurate/internal/refdata"
	"oceancurate/pkg/domain"
)

func testMission() domain.Mission {
	var m domain.Mission
	m.Fields.Set(domain.FieldMissionType, domain.String("RV"))
	m.Fields.Set(domain.FieldStartYear, domain.String("2024"))
	m.Fields.Set(domain.FieldPlatform, domain.String("18HU"))
	m.Fields.Set(domain.FieldMissionNumber, domain.String("7"))
	m.Fields.Set(domain.FieldMissionStartDate, domain.String("2024-03-05"))

	var op domain.Operation
	op.Fields.Set(domain.FieldOperationType, domain.String("CTD"))
	op.Fields.Set(domain.FieldOperationNumber, domain.String("1"))
	op.Fields.Set(domain.FieldTimeStart, domain.String("2024-03-05 08:30:00"))
	op.Fields.Set(domain.FieldLongitudeStart, domain.String("-63.5"))
	op.Fields.Set(domain.FieldLatitudeStart, domain.String("44.2"))

	var inst domain.Instrument
	inst.Fields.Set(domain.FieldInstrumentType, domain.String("SBE911"))
	inst.Fields.Set(domain.FieldInstrumentNumber, domain.String("1"))

	var p domain.Parameter
	p.Fields.Set(domain.FieldParameterCode, domain.String("TEMP"))
	p.Fields.Set(domain.FieldUnits, domain.String("degC"))
	var rd domain.Reading
	rd.Fields.Set(domain.FieldValue, domain.String("3.42"))
	p.Readings = append(p.Readings, rd)

	inst.Parameters = append(inst.Parameters, p)
	op.Instruments = append(op.Instruments, inst)
	m.Operations = append(m.Operations, op)
	return m
}

func writeMissionFile(t *testing.T, m domain.Mission) string {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal mission: %v", err)
	}
	path := filepath.Join(t.TempDir(), "mission.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write mission: %v", err)
	}
	return path
}

func TestCLIRequiresMissionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "-mission is required") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestCLIRejectsUnknownContext(t *testing.T) {
	path := writeMissionFile(t, testMission())
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-mission", path, "-context", "archive"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "unknown context") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestCLIPassesCleanMissionWithoutRefdata(t *testing.T) {
	t.Setenv("OCEANCURATE_REFERENCE_DB", "")
	path := writeMissionFile(t, testMission())
	var stdout, stderr bytes.Buffer
	// Without a reference source code lookups are unverifiable, not fatal.
	if code := cli([]string{"-mission", path, "-min-severity", "4"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0\nstdout: %s\nstderr: %s", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "0 fatal") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestCLIFlagsFatalDefects(t *testing.T) {
	m := testMission()
	m.Fields.Delete(domain.FieldMissionType)
	path := writeMissionFile(t, m)

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-mission", path, "-min-severity", "4"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1\nstdout: %s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "[FATAL]") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestCLIWritesRepairedRecord(t *testing.T) {
	t.Setenv("OCEANCURATE_REFERENCE_DB", "")
	path := writeMissionFile(t, testMission())
	outPath := filepath.Join(t.TempDir(), "repaired.json")

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-mission", path, "-out", outPath}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read repaired record: %v", err)
	}
	var repaired domain.Mission
	if err := json.Unmarshal(data, &repaired); err != nil {
		t.Fatalf("decode repaired record: %v", err)
	}
	rd := repaired.Operations[0].Instruments[0].Parameters[0].Readings[0]
	if got := rd.Fields.Text(domain.FieldQualityFlag); got != domain.QualityFlagNone {
		t.Fatalf("repaired quality flag = %q, want default %q", got, domain.QualityFlagNone)
	}
}

func TestCLIEnrichesFromSQLiteSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "refdata.db")
	resolver, err := refdata.OpenSQLite(snapshot)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	seeds := [][3]string{
		{domain.TableMissionTypes, "RV", "Research vessel"},
		{domain.TablePlatforms, "18HU", "CCGS Hudson"},
		{domain.TableOperationTypes, "CTD", "Conductivity temperature depth profile"},
		{domain.TableInstruments, "SBE911", "Sea-Bird SBE 911plus"},
		{domain.TableParameters, "TEMP", "Water temperature"},
		{domain.TableQualityFlags, domain.QualityFlagNone, "No quality control"},
		{domain.TableQualityFlags, domain.QualityFlagMissing, "Missing value"},
	}
	for _, seed := range seeds {
		if err := resolver.SeedCodeset(seed[0], seed[1], domain.RefColumnName, seed[2]); err != nil {
			t.Fatalf("seed %s/%s: %v", seed[0], seed[1], err)
		}
	}
	validFrom := time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := resolver.SeedPlatformAttribute("18HU", "name", validFrom, "CCGS Hudson"); err != nil {
		t.Fatalf("seed platform attribute: %v", err)
	}
	if err := resolver.Close(); err != nil {
		t.Fatalf("close snapshot: %v", err)
	}

	path := writeMissionFile(t, testMission())
	outPath := filepath.Join(t.TempDir(), "repaired.json")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-mission", path, "-refdata", snapshot, "-out", outPath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d\nstdout: %s\nstderr: %s", code, stdout.String(), stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read repaired record: %v", err)
	}
	var repaired domain.Mission
	if err := json.Unmarshal(data, &repaired); err != nil {
		t.Fatalf("decode repaired record: %v", err)
	}
	if got := repaired.Fields.Text(domain.FieldPlatformName); got != "CCGS Hudson" {
		t.Fatalf("platformName = %q, want enrichment from snapshot", got)
	}
}
