// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/domain"
)

// ErrInvalidRequest and related errors are the transport-visible failure classes.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidConfig  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrUnavailable    = errors.New("service unavailable")
)

// OnCallRequest captures one who-is-on-call lookup.
type OnCallRequest struct {
	Date      string
	Overrides string
}

// ScheduleRequest captures one schedule listing.
type ScheduleRequest struct {
	From      string
	Days      int
	Overrides string
}

// AddOverrideRequest captures input for one stored override.
type AddOverrideRequest struct {
	Engineer string `json:"engineer"`
	Date     string `json:"date"`
	Note     string `json:"note,omitempty"`
}

// OnCallReader resolves read-only rotation queries.
type OnCallReader interface {
	WhoIsOnCall(context.Context, OnCallRequest) (domain.ResolvedAssignment, error)
	Schedule(context.Context, ScheduleRequest) (app.Schedule, error)
	Version(context.Context) (app.VersionInfo, error)
}

// ReadinessChecker reports whether lookups can currently be answered.
type ReadinessChecker interface {
	Ready(context.Context) error
}

// OverrideService captures optional stored-override operations.
type OverrideService interface {
	ListOverrides(context.Context) (app.OverrideListing, error)
	AddOverride(context.Context, AddOverrideRequest) (domain.OverrideRecord, error)
	GetOverride(context.Context, string) (domain.OverrideRecord, error)
	RemoveOverride(context.Context, string) error
}

// ErrorCode returns the stable machine-readable code for one adapter error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnavailable):
		return "service_unavailable"
	default:
		return "internal_error"
	}
}
