package app

import (
	"context"

	"github.com/hylla/oncall/internal/domain"
)

// OverrideStore persists overrides added at runtime.
// ListOverrides must return records in insertion order; it is the tie-break order for same-date overrides.
type OverrideStore interface {
	CreateOverride(context.Context, domain.OverrideRecord) error
	GetOverride(context.Context, string) (domain.OverrideRecord, error)
	ListOverrides(context.Context) ([]domain.OverrideRecord, error)
	DeleteOverride(context.Context, string) error
}

// Rotation is one loaded rotation and where it came from.
type Rotation struct {
	Config    domain.RotationConfig
	Overrides []domain.Override
	Source    string
}

// RotationProvider returns the current rotation, or the error that prevented loading it.
type RotationProvider func() (Rotation, error)

// StaticRotation returns a provider that always yields the same result.
func StaticRotation(rotation Rotation, err error) RotationProvider {
	return func() (Rotation, error) {
		if err != nil {
			return Rotation{Source: rotation.Source}, err
		}
		return rotation, nil
	}
}
