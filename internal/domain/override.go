package domain

import (
	"strings"
)

// Origin tags where an override came from. It is informational and never affects precedence.
type Origin string

// OriginPersistent and related constants define override origins.
const (
	OriginPersistent Origin = "persistent"
	OriginAdhoc      Origin = "adhoc"
)

// Override assigns Name from Date until a later override or the next slot boundary.
// Two overrides are the same override when Date and Name match.
type Override struct {
	Date   Date   `json:"date"`
	Name   string `json:"engineer"`
	Origin Origin `json:"-"`
}

// NewOverride validates one override pair.
func NewOverride(name string, date Date, origin Origin) (Override, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Override{}, &ValidationError{Field: "override", Value: name, Reason: "name is empty"}
	}
	if origin == "" {
		origin = OriginPersistent
	}
	return Override{Date: date, Name: name, Origin: origin}, nil
}

// Key returns the (date, name) identity used for deduplication.
func (o Override) Key() OverrideKey {
	return OverrideKey{Date: o.Date, Name: o.Name}
}

// OverrideKey is the identity of one override.
type OverrideKey struct {
	Date Date
	Name string
}

// ParseOverrides parses the compact `Name:YYYY-MM-DD[,Name:YYYY-MM-DD...]` list.
// Order is preserved and duplicates are kept; empty segments are skipped.
// The first ':' separates name from date, so names cannot contain ':'.
func ParseOverrides(raw string) ([]Override, error) {
	out := []Override{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, segment := range strings.Split(raw, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		override, err := parseOverrideSegment(segment)
		if err != nil {
			return nil, err
		}
		out = append(out, override)
	}
	return out, nil
}

// parseOverrideSegment parses one trimmed `name:date` segment.
func parseOverrideSegment(segment string) (Override, error) {
	name, datePart, ok := strings.Cut(segment, ":")
	if !ok {
		return Override{}, &ValidationError{Field: "override", Value: segment, Reason: "missing ':' between name and date"}
	}
	name = strings.TrimSpace(name)
	datePart = strings.TrimSpace(datePart)
	if name == "" {
		return Override{}, &ValidationError{Field: "override", Value: segment, Reason: "name is empty"}
	}
	date, err := ParseDate(datePart)
	if err != nil {
		return Override{}, &ValidationError{Field: "override", Value: segment, Reason: "expected date as YYYY-MM-DD"}
	}
	return Override{Date: date, Name: name, Origin: OriginAdhoc}, nil
}

// FormatOverrides renders overrides back into the compact list form.
func FormatOverrides(overrides []Override) string {
	parts := make([]string, 0, len(overrides))
	for _, o := range overrides {
		parts = append(parts, o.Name+":"+o.Date.String())
	}
	return strings.Join(parts, ",")
}
