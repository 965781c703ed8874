package domain

// Source tags whether an assignment came from the baseline schedule or an override.
type Source string

// SourceSchedule and related constants define assignment sources.
const (
	SourceSchedule Source = "schedule"
	SourceOverride Source = "override"
)

// ResolvedAssignment is the outcome of one on-call lookup.
// Slot and roster fields always describe the baseline for Date, even when an override applies.
type ResolvedAssignment struct {
	Date            Date      `json:"date"`
	Name            string    `json:"engineer"`
	Source          Source    `json:"source"`
	RotationStart   Date      `json:"rotation_start"`
	PeriodDays      int       `json:"rotation_days"`
	SlotIndex       int       `json:"slot_index"`
	SlotStart       Date      `json:"slot_start"`
	RosterIndex     int       `json:"engineer_index"`
	RosterSize      int       `json:"total_engineers"`
	ScheduledName   string    `json:"scheduled_engineer"`
	AppliedOverride *Override `json:"applied_override,omitempty"`
}

// Resolve answers who is on call for target.
// The override in effect wins; otherwise the baseline rotation assignee is returned.
func Resolve(cfg RotationConfig, persistent, adhoc []Override, target Date) (ResolvedAssignment, error) {
	rosterIndex, err := cfg.RosterIndex(target)
	if err != nil {
		return ResolvedAssignment{}, err
	}
	roster := cfg.Roster()
	out := ResolvedAssignment{
		Date:          target,
		Name:          roster[rosterIndex],
		Source:        SourceSchedule,
		RotationStart: cfg.StartDate(),
		PeriodDays:    cfg.PeriodDays(),
		SlotIndex:     cfg.SlotIndex(target),
		SlotStart:     cfg.SlotStart(target),
		RosterIndex:   rosterIndex,
		RosterSize:    len(roster),
		ScheduledName: roster[rosterIndex],
	}
	if applied, ok := SelectOverride(cfg, persistent, adhoc, target); ok {
		out.Name = applied.Name
		out.Source = SourceOverride
		out.AppliedOverride = &applied
	}
	return out, nil
}
