package changelog

import (
	"testing"
)

const fixture = `# Changelog

All notable changes to this project are documented here.

## [1.2.0] - 2025-09-20

### Added
- Ad-hoc override string format
- Schedule listing

### Fixed
* Negative slot indexes before the rotation start

## v1.1.0

### Changed
- Configuration may come from the environment
  with a continuation line

## [1.0.0-rc.1] - 2025-08-25

Initial release notes without groups.

## Unreleased notes
- ignored bullet
`

// TestParseEntries verifies versions, dates and grouped bullets are extracted in order.
func TestParseEntries(t *testing.T) {
	entries := Parse([]byte(fixture))
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %#v", entries)
	}

	first := entries[0]
	if first.Version != "1.2.0" {
		t.Fatalf("version = %q, want 1.2.0", first.Version)
	}
	if first.Date == nil || *first.Date != "2025-09-20" {
		t.Fatalf("date = %v, want 2025-09-20", first.Date)
	}
	added := first.Changes["Added"]
	if len(added) != 2 || added[0] != "Ad-hoc override string format" || added[1] != "Schedule listing" {
		t.Fatalf("unexpected Added changes %#v", added)
	}
	if fixed := first.Changes["Fixed"]; len(fixed) != 1 || fixed[0] != "Negative slot indexes before the rotation start" {
		t.Fatalf("unexpected Fixed changes %#v", fixed)
	}

	second := entries[1]
	if second.Version != "1.1.0" || second.Date != nil {
		t.Fatalf("unexpected second entry %#v", second)
	}
	if changed := second.Changes["Changed"]; len(changed) != 1 || changed[0] != "Configuration may come from the environment" {
		t.Fatalf("unexpected Changed changes %#v", changed)
	}

	third := entries[2]
	if third.Version != "1.0.0-rc.1" || third.Date == nil || *third.Date != "2025-08-25" {
		t.Fatalf("unexpected third entry %#v", third)
	}
	if len(third.Changes) != 0 {
		t.Fatalf("expected no grouped changes, got %#v", third.Changes)
	}
}

// TestParseEmpty verifies documents without versions yield an empty list.
func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "# Changelog\n\nNothing yet.\n"} {
		entries := Parse([]byte(src))
		if entries == nil || len(entries) != 0 {
			t.Fatalf("Parse(%q) = %#v, want empty", src, entries)
		}
	}
}
