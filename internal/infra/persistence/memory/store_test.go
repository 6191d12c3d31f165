package memory

import (
	"context"
	"errors"
	"testing"

	"oceancurate/pkg/domain"
)

func mission(missionType string, year int64, platform string, number int64) domain.Mission {
	var m domain.Mission
	m.Fields.Set(domain.FieldMissionType, domain.String(missionType))
	m.Fields.Set(domain.FieldStartYear, domain.Integer(year))
	m.Fields.Set(domain.FieldPlatform, domain.String(platform))
	m.Fields.Set(domain.FieldMissionNumber, domain.Integer(number))
	return m
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	m := mission("RV", 2024, "18HU", 7)

	if err := s.Put(ctx, m); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, m.Key())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Key() != m.Key() {
		t.Fatalf("key = %q, want %q", got.Key(), m.Key())
	}

	existed, err := s.Delete(ctx, m.Key())
	if err != nil || !existed {
		t.Fatalf("delete = (%v, %v)", existed, err)
	}
	if _, err := s.Get(ctx, m.Key()); err == nil {
		t.Fatalf("deleted mission still readable")
	}
	existed, err = s.Delete(ctx, m.Key())
	if err != nil || existed {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", existed, err)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get(context.Background(), "RV/2024/18HU/99")
	var notFound domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if notFound.Key != "RV/2024/18HU/99" {
		t.Fatalf("not-found key = %q", notFound.Key)
	}
}

func TestStoreRejectsKeylessMission(t *testing.T) {
	s := NewStore()
	if err := s.Put(context.Background(), domain.Mission{}); err == nil {
		t.Fatalf("keyless mission accepted")
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	m := mission("RV", 2024, "18HU", 7)
	if err := s.Put(ctx, m); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, m.Key())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Fields.Set(domain.FieldChiefScientist, domain.String("tampered"))

	again, err := s.Get(ctx, m.Key())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !again.Fields.Empty(domain.FieldChiefScientist) {
		t.Fatalf("stored aggregate mutated through a returned copy")
	}
}

func TestStoreKeysSorted(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, m := range []domain.Mission{
		mission("RV", 2024, "18VA", 2),
		mission("RV", 2023, "18HU", 1),
		mission("FV", 2024, "18HU", 3),
	} {
		if err := s.Put(ctx, m); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"FV/2024/18HU/3", "RV/2023/18HU/1", "RV/2024/18VA/2"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	m := mission("RV", 2024, "18HU", 7)
	if err := s.Put(ctx, m); err != nil {
		t.Fatalf("put: %v", err)
	}

	snapshot := s.ExportState()
	restored := NewStore()
	restored.ImportState(snapshot)

	got, err := restored.Get(ctx, m.Key())
	if err != nil {
		t.Fatalf("get after import: %v", err)
	}
	if got.Key() != m.Key() {
		t.Fatalf("restored key = %q", got.Key())
	}

	// The snapshot is a clone: mutating it must not reach either store.
	snap := snapshot[m.Key()]
	snap.Fields.Set(domain.FieldChiefScientist, domain.String("tampered"))
	again, _ := restored.Get(ctx, m.Key())
	if !again.Fields.Empty(domain.FieldChiefScientist) {
		t.Fatalf("imported state aliases the snapshot")
	}
}
