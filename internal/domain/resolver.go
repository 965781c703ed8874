package domain

// OverrideSet is the merged, deduplicated override list for one resolution.
// Persistent overrides come first, then ad-hoc ones; later repeats of a (date, name) pair are dropped.
type OverrideSet struct {
	items []Override
}

// NewOverrideSet merges persistent and ad-hoc overrides. Neither input is modified.
func NewOverrideSet(persistent, adhoc []Override) OverrideSet {
	items := make([]Override, 0, len(persistent)+len(adhoc))
	seen := make(map[OverrideKey]struct{}, len(persistent)+len(adhoc))
	for _, group := range [][]Override{persistent, adhoc} {
		for _, o := range group {
			if _, ok := seen[o.Key()]; ok {
				continue
			}
			seen[o.Key()] = struct{}{}
			items = append(items, o)
		}
	}
	return OverrideSet{items: items}
}

// Latest returns the override with the greatest date on or before target.
// Ties go to the override that appears first in the set.
func (s OverrideSet) Latest(target Date) (Override, bool) {
	var (
		best  Override
		found bool
	)
	for _, o := range s.items {
		if o.Date.After(target) {
			continue
		}
		if !found || o.Date.After(best.Date) {
			best = o
			found = true
		}
	}
	return best, found
}

// SelectOverride returns the override in effect on target, if any.
// An override holds from its date until the next natural slot boundary after that date;
// a later override on or before target always supersedes it.
func SelectOverride(cfg RotationConfig, persistent, adhoc []Override, target Date) (Override, bool) {
	latest, ok := NewOverrideSet(persistent, adhoc).Latest(target)
	if !ok {
		return Override{}, false
	}
	if !target.Before(cfg.SlotBoundaryAfter(latest.Date)) {
		return Override{}, false
	}
	return latest, true
}
