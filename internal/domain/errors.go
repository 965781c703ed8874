package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig and related errors describe rotation configuration and input failures.
var (
	ErrInvalidConfig = errors.New("invalid rotation config")
	ErrEmptyRoster   = fmt.Errorf("%w: roster must include at least one name", ErrInvalidConfig)
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidID     = errors.New("invalid id")
)

// ValidationError reports one malformed caller-supplied value.
// Value holds the raw input verbatim so operators can see exactly what failed.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets callers match every validation failure with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// invalidDate builds the validation error for one unparseable date field.
func invalidDate(field, raw string) error {
	return &ValidationError{
		Field:  field,
		Value:  raw,
		Reason: "expected YYYY-MM-DD",
	}
}

// ParseDateField parses one YYYY-MM-DD value and names field on failure.
func ParseDateField(field, raw string) (Date, error) {
	d, err := ParseDate(raw)
	if err != nil {
		return Date{}, invalidDate(field, raw)
	}
	return d, nil
}
