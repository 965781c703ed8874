package domain

import (
	"fmt"
	"strings"
)

// DefaultPeriodDays is the slot length used when none (or a non-positive one) is configured.
const DefaultPeriodDays = 7

// RotationConfig describes one cyclic on-call rotation.
// Values are immutable once constructed; accessors return copies.
type RotationConfig struct {
	roster     []string
	startDate  Date
	periodDays int
}

// NewRotationConfig validates and normalizes one rotation.
// Names are trimmed and must be unique and non-empty. periodDays <= 0 becomes DefaultPeriodDays.
func NewRotationConfig(roster []string, startDate Date, periodDays int) (RotationConfig, error) {
	if len(roster) == 0 {
		return RotationConfig{}, ErrEmptyRoster
	}
	names := make([]string, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for idx, raw := range roster {
		name := strings.TrimSpace(raw)
		if name == "" {
			return RotationConfig{}, fmt.Errorf("%w: roster[%d] is empty", ErrInvalidConfig, idx)
		}
		if _, ok := seen[name]; ok {
			return RotationConfig{}, fmt.Errorf("%w: roster[%d] is duplicated: %s", ErrInvalidConfig, idx, name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}
	return RotationConfig{
		roster:     names,
		startDate:  startDate,
		periodDays: periodDays,
	}, nil
}

// Roster returns a copy of the ordered roster.
func (c RotationConfig) Roster() []string {
	return append([]string(nil), c.roster...)
}

// RosterSize returns the number of roster members.
func (c RotationConfig) RosterSize() int {
	return len(c.roster)
}

// StartDate returns the first day of slot 0.
func (c RotationConfig) StartDate() Date {
	return c.startDate
}

// PeriodDays returns the slot length in days.
func (c RotationConfig) PeriodDays() int {
	if c.periodDays <= 0 {
		return DefaultPeriodDays
	}
	return c.periodDays
}

// SlotIndex returns the signed slot number containing date.
func (c RotationConfig) SlotIndex(date Date) int {
	return FloorDiv(DayOffset(c.startDate, date), c.PeriodDays())
}

// SlotStart returns the first day of the slot containing date.
func (c RotationConfig) SlotStart(date Date) Date {
	return c.startDate.AddDays(c.SlotIndex(date) * c.PeriodDays())
}

// SlotBoundaryAfter returns the first date after date at which the slot index changes.
func (c RotationConfig) SlotBoundaryAfter(date Date) Date {
	return c.startDate.AddDays((c.SlotIndex(date) + 1) * c.PeriodDays())
}

// RosterIndex returns the roster position responsible for date under the baseline rotation.
func (c RotationConfig) RosterIndex(date Date) (int, error) {
	if len(c.roster) == 0 {
		return 0, ErrEmptyRoster
	}
	return NonNegMod(c.SlotIndex(date), len(c.roster)), nil
}

// Assignee returns the baseline roster member for date.
func (c RotationConfig) Assignee(date Date) (string, error) {
	idx, err := c.RosterIndex(date)
	if err != nil {
		return "", err
	}
	return c.roster[idx], nil
}
