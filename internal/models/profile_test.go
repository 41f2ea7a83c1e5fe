package models

import (
	"sort"
	"testing"
	"time"
)

func TestAddPeriodKeepsCyclesSortedByStart(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	profile.AddPeriod(mustParseDay(t, "2025-09-02"), nil, nil)
	profile.AddPeriod(mustParseDay(t, "2025-07-01"), nil, nil)
	profile.AddPeriod(mustParseDay(t, "2025-08-01"), nil, nil)

	assertSortedByStart(t, profile)
	cycles := profile.Cycles()
	if cycles[0].Start.Format(SnapshotDateLayout) != "2025-07-01" {
		t.Fatalf("expected first start 2025-07-01, got %s", cycles[0].Start.Format(SnapshotDateLayout))
	}
}

func TestAddPeriodAssignsUniqueIDs(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		record := profile.AddPeriod(mustParseDay(t, "2025-07-01").AddDate(0, 0, i*28), nil, nil)
		if record.ID == "" {
			t.Fatal("expected non-empty id")
		}
		if seen[record.ID] {
			t.Fatalf("duplicate id %s", record.ID)
		}
		seen[record.ID] = true
	}
}

func TestAddPeriodNormalizesDates(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	location := time.FixedZone("UTC-5", -5*60*60)
	start := time.Date(2025, time.September, 2, 21, 15, 0, 0, location)
	end := time.Date(2025, time.September, 6, 8, 0, 0, 0, location)

	record := profile.AddPeriod(start, &end, nil)
	if !record.Start.Equal(mustParseDay(t, "2025-09-02")) {
		t.Fatalf("expected start normalized to 2025-09-02, got %s", record.Start)
	}
	if record.End == nil || !record.End.Equal(mustParseDay(t, "2025-09-06")) {
		t.Fatalf("expected end normalized to 2025-09-06, got %v", record.End)
	}
}

func TestEditCycleTriStateFields(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	end := mustParseDay(t, "2025-09-06")
	record := profile.AddPeriod(mustParseDay(t, "2025-09-02"), &end, stringPtr("first"))

	if !profile.EditCycle(record.ID, CyclePatch{}) {
		t.Fatal("expected empty patch on existing id to succeed")
	}
	unchanged, _ := profile.FindCycle(record.ID)
	if unchanged.End == nil || !unchanged.End.Equal(end) {
		t.Fatalf("expected omitted end to stay, got %v", unchanged.End)
	}
	if unchanged.Notes == nil || *unchanged.Notes != "first" {
		t.Fatalf("expected omitted notes to stay, got %v", unchanged.Notes)
	}

	newEnd := mustParseDay(t, "2025-09-07")
	profile.EditCycle(record.ID, CyclePatch{End: Set(newEnd), Notes: Set("second")})
	updated, _ := profile.FindCycle(record.ID)
	if updated.End == nil || !updated.End.Equal(newEnd) {
		t.Fatalf("expected end 2025-09-07, got %v", updated.End)
	}
	if updated.Notes == nil || *updated.Notes != "second" {
		t.Fatalf("expected notes second, got %v", updated.Notes)
	}

	profile.EditCycle(record.ID, CyclePatch{End: Clear[time.Time](), Notes: Clear[string]()})
	cleared, _ := profile.FindCycle(record.ID)
	if cleared.End != nil {
		t.Fatalf("expected cleared end, got %v", cleared.End)
	}
	if cleared.Notes != nil {
		t.Fatalf("expected cleared notes, got %q", *cleared.Notes)
	}
	if !cleared.Start.Equal(mustParseDay(t, "2025-09-02")) {
		t.Fatalf("expected start unchanged, got %s", cleared.Start)
	}
}

func TestEditCycleStartResorts(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	first := profile.AddPeriod(mustParseDay(t, "2025-07-01"), nil, nil)
	profile.AddPeriod(mustParseDay(t, "2025-08-01"), nil, nil)
	profile.AddPeriod(mustParseDay(t, "2025-09-02"), nil, nil)

	moved := mustParseDay(t, "2025-10-01")
	if !profile.EditCycle(first.ID, CyclePatch{Start: &moved}) {
		t.Fatal("expected edit to succeed")
	}

	assertSortedByStart(t, profile)
	cycles := profile.Cycles()
	if cycles[len(cycles)-1].ID != first.ID {
		t.Fatalf("expected moved cycle to be last, got %s", cycles[len(cycles)-1].ID)
	}
}

func TestEditAndDeleteUnknownIDLeaveCollectionUnchanged(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	profile.AddPeriod(mustParseDay(t, "2025-07-01"), nil, stringPtr("kept"))
	before := profile.ToSnapshot()

	start := mustParseDay(t, "2025-01-01")
	if profile.EditCycle("unknown-id", CyclePatch{Start: &start, Notes: Set("changed")}) {
		t.Fatal("expected edit of unknown id to fail")
	}
	if profile.DeleteCycle("unknown-id") {
		t.Fatal("expected delete of unknown id to fail")
	}

	after := profile.ToSnapshot()
	if len(after.Cycles) != len(before.Cycles) || *after.Cycles[0].Start != *before.Cycles[0].Start || *after.Cycles[0].Notes != "kept" {
		t.Fatalf("expected collection unchanged, before=%+v after=%+v", before.Cycles, after.Cycles)
	}
}

func TestDeleteCycleRemovesRecord(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	first := profile.AddPeriod(mustParseDay(t, "2025-07-01"), nil, nil)
	second := profile.AddPeriod(mustParseDay(t, "2025-08-01"), nil, nil)

	if !profile.DeleteCycle(first.ID) {
		t.Fatal("expected delete to succeed")
	}
	if profile.DeleteCycle(first.ID) {
		t.Fatal("expected second delete of the same id to fail")
	}
	cycles := profile.Cycles()
	if len(cycles) != 1 || cycles[0].ID != second.ID {
		t.Fatalf("expected only %s to remain, got %+v", second.ID, cycles)
	}
}

func TestSetLastCycleEnd(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	if profile.SetLastCycleEnd(mustParseDay(t, "2025-09-05")) {
		t.Fatal("expected false without cycles")
	}

	profile.AddPeriod(mustParseDay(t, "2025-08-01"), nil, nil)
	latest := profile.AddPeriod(mustParseDay(t, "2025-09-02"), nil, nil)
	if !profile.SetLastCycleEnd(mustParseDay(t, "2025-09-05")) {
		t.Fatal("expected true with cycles")
	}
	record, _ := profile.FindCycle(latest.ID)
	if record.End == nil || record.End.Format(SnapshotDateLayout) != "2025-09-05" {
		t.Fatalf("expected latest cycle closed on 2025-09-05, got %v", record.End)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	profile.AddPeriod(mustParseDay(t, "2025-07-01"), nil, stringPtr("note"))

	cycles := profile.Cycles()
	*cycles[0].Notes = "mutated"
	cycles[0].Start = mustParseDay(t, "2000-01-01")

	stored := profile.Cycles()
	if *stored[0].Notes != "note" || stored[0].Start.Format(SnapshotDateLayout) != "2025-07-01" {
		t.Fatalf("expected stored record untouched, got %+v", stored[0])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	profile := NewFertilityProfile("p1", "Tracker")
	profile.AddPeriod(mustParseDay(t, "2025-08-01"), nil, nil)
	profile.NotifyServices = []string{"notify.telegram"}

	clone := profile.Clone()
	clone.AddPeriod(mustParseDay(t, "2025-09-01"), nil, nil)
	clone.SetLastCycleEnd(mustParseDay(t, "2025-09-05"))
	clone.NotifyServices[0] = "notify.log"
	day := "2025-09-05"
	clone.LastNotifiedDate = &day
	clone.LogSex(mustParseDay(t, "2025-09-05"), true, nil)

	if got := len(profile.Cycles()); got != 1 {
		t.Fatalf("expected original to keep one cycle, got %d", got)
	}
	if profile.Cycles()[0].End != nil {
		t.Fatal("expected original cycle end to stay open")
	}
	if profile.NotifyServices[0] != "notify.telegram" {
		t.Fatalf("expected original notify services untouched, got %v", profile.NotifyServices)
	}
	if profile.LastNotifiedDate != nil || len(profile.SexEvents()) != 0 {
		t.Fatal("expected original notification date and sex log untouched")
	}
	if got := len(clone.Cycles()); got != 2 {
		t.Fatalf("expected clone to hold two cycles, got %d", got)
	}
}

func TestCycleRecordCovers(t *testing.T) {
	t.Parallel()

	end := mustParseDay(t, "2025-09-05")
	closed := CycleRecord{Start: mustParseDay(t, "2025-09-02"), End: &end}
	open := CycleRecord{Start: mustParseDay(t, "2025-09-02")}

	if !closed.Covers(mustParseDay(t, "2025-09-05")) || closed.Covers(mustParseDay(t, "2025-09-06")) {
		t.Fatal("unexpected coverage for closed period")
	}
	if !open.Covers(mustParseDay(t, "2025-09-02")) || open.Covers(mustParseDay(t, "2025-09-03")) {
		t.Fatal("unexpected coverage for open period")
	}
}

func assertSortedByStart(t *testing.T, profile *FertilityProfile) {
	t.Helper()
	cycles := profile.Cycles()
	if !sort.SliceIsSorted(cycles, func(i, j int) bool { return cycles[i].Start.Before(cycles[j].Start) }) {
		t.Fatalf("expected cycles sorted by start, got %+v", cycles)
	}
}

func mustParseDay(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(SnapshotDateLayout, raw, time.UTC)
	if err != nil {
		t.Fatalf("parse day %q: %v", raw, err)
	}
	return parsed
}
