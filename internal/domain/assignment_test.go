package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// TestResolveBaseline verifies schedule results and baseline fields without overrides.
func TestResolveBaseline(t *testing.T) {
	cfg := weeklyABC(t)
	cases := []struct {
		date      string
		wantName  string
		wantSlot  int
		wantIndex int
	}{
		{date: "2025-08-25", wantName: "A", wantSlot: 0, wantIndex: 0},
		{date: "2025-09-01", wantName: "B", wantSlot: 1, wantIndex: 1},
		{date: "2025-09-08", wantName: "C", wantSlot: 2, wantIndex: 2},
		{date: "2025-09-15", wantName: "A", wantSlot: 3, wantIndex: 0},
		{date: "2025-08-18", wantName: "C", wantSlot: -1, wantIndex: 2},
	}
	for _, tc := range cases {
		got, err := Resolve(cfg, nil, nil, mustDate(t, tc.date))
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", tc.date, err)
		}
		if got.Name != tc.wantName || got.SlotIndex != tc.wantSlot || got.RosterIndex != tc.wantIndex {
			t.Fatalf("Resolve(%s) = %#v", tc.date, got)
		}
		if got.Source != SourceSchedule || got.AppliedOverride != nil {
			t.Fatalf("Resolve(%s) expected schedule source, got %#v", tc.date, got)
		}
		if got.RosterSize != 3 || got.PeriodDays != 7 || got.RotationStart.String() != "2025-08-25" {
			t.Fatalf("Resolve(%s) baseline fields = %#v", tc.date, got)
		}
	}
}

// TestResolveOverrideInEffect verifies override results keep baseline observability fields.
func TestResolveOverrideInEffect(t *testing.T) {
	cfg := weeklyABC(t)
	got, err := Resolve(cfg, nil, mustOverrides(t, "Bob:2025-09-01"), mustDate(t, "2025-09-03"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Name != "Bob" || got.Source != SourceOverride {
		t.Fatalf("expected Bob from override, got %#v", got)
	}
	if got.AppliedOverride == nil || got.AppliedOverride.Date.String() != "2025-09-01" {
		t.Fatalf("expected applied override, got %#v", got.AppliedOverride)
	}
	if got.SlotStart.String() != "2025-09-01" {
		t.Fatalf("SlotStart = %s, want 2025-09-01", got.SlotStart)
	}
	if got.SlotIndex != 1 || got.RosterIndex != 1 || got.ScheduledName != "B" {
		t.Fatalf("expected baseline slot 1 / B, got %#v", got)
	}
}

// TestResolveOverrideLapsed verifies the boundary date itself falls back to the schedule.
func TestResolveOverrideLapsed(t *testing.T) {
	cfg := weeklyABC(t)
	got, err := Resolve(cfg, nil, mustOverrides(t, "Bob:2025-09-01"), mustDate(t, "2025-09-08"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Name != "C" || got.Source != SourceSchedule || got.AppliedOverride != nil {
		t.Fatalf("expected C from schedule, got %#v", got)
	}
}

// TestResolveDuplicateOverridesMatchSingle verifies duplicate ad-hoc pairs behave like one.
func TestResolveDuplicateOverridesMatchSingle(t *testing.T) {
	cfg := weeklyABC(t)
	single := mustOverrides(t, "Bob:2025-09-01")
	double := mustOverrides(t, "Bob:2025-09-01,Bob:2025-09-01")
	start := mustDate(t, "2025-08-28")
	for offset := 0; offset < 21; offset++ {
		target := start.AddDays(offset)
		a, err := Resolve(cfg, nil, single, target)
		if err != nil {
			t.Fatalf("Resolve(single) error = %v", err)
		}
		b, err := Resolve(cfg, nil, double, target)
		if err != nil {
			t.Fatalf("Resolve(double) error = %v", err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("Resolve(%s) differs: %#v vs %#v", target, a, b)
		}
	}
}

// TestResolveIsIdempotent verifies repeated calls give identical results.
func TestResolveIsIdempotent(t *testing.T) {
	cfg := weeklyABC(t)
	persistent := []Override{{Date: mustDate(t, "2025-09-10"), Name: "Eve", Origin: OriginPersistent}}
	adhoc := mustOverrides(t, "Zed:2025-09-18")
	target := mustDate(t, "2025-09-12")
	first, err := Resolve(cfg, persistent, adhoc, target)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := Resolve(cfg, persistent, adhoc, target)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("results differ:\n%s\n%s", a, b)
	}
	if first.Name != "Eve" {
		t.Fatalf("expected persistent Eve, got %q", first.Name)
	}
}

// TestResolveEmptyRoster verifies a missing roster is a config error.
func TestResolveEmptyRoster(t *testing.T) {
	_, err := Resolve(RotationConfig{}, nil, mustOverrides(t, "Bob:2025-09-01"), mustDate(t, "2025-09-03"))
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}

// TestResolvedAssignmentJSON verifies the wire keys consumed by transport adapters.
func TestResolvedAssignmentJSON(t *testing.T) {
	cfg := weeklyABC(t)
	got, err := Resolve(cfg, nil, mustOverrides(t, "Bob:2025-09-01"), mustDate(t, "2025-09-03"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"date", "engineer", "source", "rotation_start", "rotation_days", "slot_index", "slot_start", "engineer_index", "total_engineers", "scheduled_engineer", "applied_override"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, encoded)
		}
	}
	if decoded["scheduled_engineer"] != "B" || decoded["slot_start"] != "2025-09-01" {
		t.Fatalf("unexpected baseline keys in %s", encoded)
	}
	applied, ok := decoded["applied_override"].(map[string]any)
	if !ok || applied["engineer"] != "Bob" || applied["date"] != "2025-09-01" {
		t.Fatalf("unexpected applied_override %#v", decoded["applied_override"])
	}
}
