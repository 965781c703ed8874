package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// WhoIsOnCall resolves one on-call lookup.
func (a *AppServiceAdapter) WhoIsOnCall(ctx context.Context, in OnCallRequest) (domain.ResolvedAssignment, error) {
	if err := a.ready(); err != nil {
		return domain.ResolvedAssignment{}, err
	}
	out, err := a.service.WhoIsOnCall(ctx, app.OnCallRequest{
		Date:      in.Date,
		Overrides: in.Overrides,
	})
	if err != nil {
		return domain.ResolvedAssignment{}, mapAppError("get on-call", err)
	}
	return out, nil
}

// Schedule resolves one schedule listing.
func (a *AppServiceAdapter) Schedule(ctx context.Context, in ScheduleRequest) (app.Schedule, error) {
	if err := a.ready(); err != nil {
		return app.Schedule{}, err
	}
	out, err := a.service.Schedule(ctx, app.ScheduleRequest{
		From:      in.From,
		Days:      in.Days,
		Overrides: in.Overrides,
	})
	if err != nil {
		return app.Schedule{}, mapAppError("list schedule", err)
	}
	return out, nil
}

// Version reports build and rotation-source metadata.
func (a *AppServiceAdapter) Version(ctx context.Context) (app.VersionInfo, error) {
	if err := a.ready(); err != nil {
		return app.VersionInfo{}, err
	}
	return a.service.Version(ctx), nil
}

// Ready reports whether the rotation loads and the override store is readable.
func (a *AppServiceAdapter) Ready(ctx context.Context) error {
	if err := a.ready(); err != nil {
		return err
	}
	return mapAppError("readiness", a.service.Ready(ctx))
}

// ListOverrides returns configured and stored overrides.
func (a *AppServiceAdapter) ListOverrides(ctx context.Context) (app.OverrideListing, error) {
	if err := a.ready(); err != nil {
		return app.OverrideListing{}, err
	}
	out, err := a.service.ListOverrides(ctx)
	if err != nil {
		return app.OverrideListing{}, mapAppError("list overrides", err)
	}
	return out, nil
}

// AddOverride stores one override.
func (a *AppServiceAdapter) AddOverride(ctx context.Context, in AddOverrideRequest) (domain.OverrideRecord, error) {
	if err := a.ready(); err != nil {
		return domain.OverrideRecord{}, err
	}
	out, err := a.service.AddOverride(ctx, app.AddOverrideRequest{
		Engineer: in.Engineer,
		Date:     in.Date,
		Note:     in.Note,
	})
	if err != nil {
		return domain.OverrideRecord{}, mapAppError("add override", err)
	}
	return out, nil
}

// GetOverride returns one stored override.
func (a *AppServiceAdapter) GetOverride(ctx context.Context, id string) (domain.OverrideRecord, error) {
	if err := a.ready(); err != nil {
		return domain.OverrideRecord{}, err
	}
	out, err := a.service.GetOverride(ctx, id)
	if err != nil {
		return domain.OverrideRecord{}, mapAppError("get override", err)
	}
	return out, nil
}

// RemoveOverride deletes one stored override.
func (a *AppServiceAdapter) RemoveOverride(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := a.service.RemoveOverride(ctx, id); err != nil {
		return mapAppError("remove override", err)
	}
	return nil
}

// ready reports whether the adapter has a backing service.
func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// mapAppError classifies app and domain errors into transport error classes.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var class error
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		class = ErrInvalidConfig
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidID):
		class = ErrInvalidRequest
	case errors.Is(err, app.ErrNotFound):
		class = ErrNotFound
	case errors.Is(err, app.ErrDuplicateOverride):
		class = ErrConflict
	case errors.Is(err, app.ErrRotationUnavailable):
		class = ErrUnavailable
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s: %w: %w", operation, class, err)
}
