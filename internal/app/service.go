package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/oncall/internal/changelog"
	"github.com/hylla/oncall/internal/domain"
)

// DefaultScheduleDays and related constants bound schedule listings.
const (
	DefaultScheduleDays = 14
	MaxScheduleDays     = 366
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Version             string
	Changelog           []byte
	DefaultScheduleDays int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service answers on-call questions over one rotation plus stored overrides.
type Service struct {
	store        OverrideStore
	rotation     RotationProvider
	idGen        IDGenerator
	clock        Clock
	version      string
	changelog    []byte
	scheduleDays int
}

// NewService constructs a new value for this package. store may be nil when no overrides are persisted.
func NewService(store OverrideStore, rotation RotationProvider, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if rotation == nil {
		rotation = StaticRotation(Rotation{}, ErrRotationUnavailable)
	}
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if strings.TrimSpace(cfg.Version) == "" {
		cfg.Version = "dev"
	}
	if cfg.DefaultScheduleDays <= 0 {
		cfg.DefaultScheduleDays = DefaultScheduleDays
	}
	return &Service{
		store:        store,
		rotation:     rotation,
		idGen:        idGen,
		clock:        clock,
		version:      strings.TrimSpace(cfg.Version),
		changelog:    append([]byte(nil), cfg.Changelog...),
		scheduleDays: min(cfg.DefaultScheduleDays, MaxScheduleDays),
	}
}

// OnCallRequest asks who is on call for one date.
type OnCallRequest struct {
	Date      string `json:"date"`
	Overrides string `json:"overrides"`
}

// WhoIsOnCall resolves the responsible engineer. An empty date means today.
func (s *Service) WhoIsOnCall(ctx context.Context, req OnCallRequest) (domain.ResolvedAssignment, error) {
	target, err := s.targetDate(req.Date, "date")
	if err != nil {
		return domain.ResolvedAssignment{}, err
	}
	adhoc, err := domain.ParseOverrides(req.Overrides)
	if err != nil {
		return domain.ResolvedAssignment{}, err
	}
	rotation, persistent, err := s.loadRotation(ctx)
	if err != nil {
		return domain.ResolvedAssignment{}, err
	}
	return domain.Resolve(rotation.Config, persistent, adhoc, target)
}

// ScheduleRequest asks for day-by-day assignments starting at From.
type ScheduleRequest struct {
	From      string `json:"from"`
	Days      int    `json:"days"`
	Overrides string `json:"overrides"`
}

// Schedule is one contiguous run of resolved days.
type Schedule struct {
	From        domain.Date                 `json:"from"`
	Until       domain.Date                 `json:"until"`
	Roster      []string                    `json:"roster"`
	Assignments []domain.ResolvedAssignment `json:"assignments"`
}

// Schedule resolves every day in [From, From+Days). An empty From means today.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (Schedule, error) {
	from, err := s.targetDate(req.From, "from")
	if err != nil {
		return Schedule{}, err
	}
	days := req.Days
	switch {
	case days == 0:
		days = s.scheduleDays
	case days < 0 || days > MaxScheduleDays:
		return Schedule{}, &domain.ValidationError{
			Field:  "days",
			Value:  strconv.Itoa(req.Days),
			Reason: fmt.Sprintf("must be between 1 and %d", MaxScheduleDays),
		}
	}
	adhoc, err := domain.ParseOverrides(req.Overrides)
	if err != nil {
		return Schedule{}, err
	}
	rotation, persistent, err := s.loadRotation(ctx)
	if err != nil {
		return Schedule{}, err
	}

	out := Schedule{
		From:        from,
		Until:       from.AddDays(days),
		Roster:      rotation.Config.Roster(),
		Assignments: make([]domain.ResolvedAssignment, 0, days),
	}
	for offset := 0; offset < days; offset++ {
		assignment, err := domain.Resolve(rotation.Config, persistent, adhoc, from.AddDays(offset))
		if err != nil {
			return Schedule{}, err
		}
		out.Assignments = append(out.Assignments, assignment)
	}
	return out, nil
}

// AddOverrideRequest stores one persistent override.
type AddOverrideRequest struct {
	Engineer string `json:"engineer"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

// AddOverride validates and stores one override.
func (s *Service) AddOverride(ctx context.Context, req AddOverrideRequest) (domain.OverrideRecord, error) {
	store, err := s.requireStore()
	if err != nil {
		return domain.OverrideRecord{}, err
	}
	date, err := domain.ParseDateField("date", req.Date)
	if err != nil {
		return domain.OverrideRecord{}, err
	}
	record, err := domain.NewOverrideRecord(s.idGen(), req.Engineer, date, req.Note, s.clock())
	if err != nil {
		return domain.OverrideRecord{}, err
	}
	key := record.Override().Key()
	// A configured twin would be dropped by the merge dedup and never take effect.
	if rotation, err := s.rotation(); err == nil && slices.ContainsFunc(rotation.Overrides, func(o domain.Override) bool {
		return o.Key() == key
	}) {
		return domain.OverrideRecord{}, fmt.Errorf("%s on %s is already configured: %w", key.Name, key.Date, ErrDuplicateOverride)
	}
	existing, err := store.ListOverrides(ctx)
	if err != nil {
		return domain.OverrideRecord{}, fmt.Errorf("list stored overrides: %w", err)
	}
	if slices.ContainsFunc(existing, func(r domain.OverrideRecord) bool {
		return r.Override().Key() == key
	}) {
		return domain.OverrideRecord{}, ErrDuplicateOverride
	}
	if err := store.CreateOverride(ctx, record); err != nil {
		return domain.OverrideRecord{}, err
	}
	return record, nil
}

// OverrideListing groups configured and stored overrides in precedence order.
type OverrideListing struct {
	Configured []domain.Override       `json:"configured"`
	Stored     []domain.OverrideRecord `json:"stored"`
}

// ListOverrides returns every persistent override. Configured ones are omitted when the rotation failed to load.
func (s *Service) ListOverrides(ctx context.Context) (OverrideListing, error) {
	out := OverrideListing{
		Configured: []domain.Override{},
		Stored:     []domain.OverrideRecord{},
	}
	if rotation, err := s.rotation(); err == nil {
		out.Configured = append(out.Configured, rotation.Overrides...)
	}
	if s.store == nil {
		return out, nil
	}
	stored, err := s.store.ListOverrides(ctx)
	if err != nil {
		return OverrideListing{}, fmt.Errorf("list stored overrides: %w", err)
	}
	out.Stored = append(out.Stored, stored...)
	return out, nil
}

// GetOverride returns one stored override by id.
func (s *Service) GetOverride(ctx context.Context, id string) (domain.OverrideRecord, error) {
	store, err := s.requireStore()
	if err != nil {
		return domain.OverrideRecord{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.OverrideRecord{}, &domain.ValidationError{Field: "id", Value: id, Reason: "id is required"}
	}
	return store.GetOverride(ctx, id)
}

// RemoveOverride deletes one stored override by id.
func (s *Service) RemoveOverride(ctx context.Context, id string) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return &domain.ValidationError{Field: "id", Value: id, Reason: "id is required"}
	}
	return store.DeleteOverride(ctx, id)
}

// VersionInfo describes the running build.
type VersionInfo struct {
	CurrentVersion string            `json:"current_version"`
	Changelog      []changelog.Entry `json:"changelog"`
	RotationConfig ConfigSourceInfo  `json:"rotation_config"`
}

// ConfigSourceInfo reports where the rotation was loaded from.
type ConfigSourceInfo struct {
	ConfigSource string `json:"config_source"`
}

// Version reports the build version, parsed changelog and rotation source.
func (s *Service) Version(_ context.Context) VersionInfo {
	rotation, _ := s.rotation()
	source := strings.TrimSpace(rotation.Source)
	if source == "" {
		source = "none"
	}
	return VersionInfo{
		CurrentVersion: s.version,
		Changelog:      changelog.Parse(s.changelog),
		RotationConfig: ConfigSourceInfo{ConfigSource: source},
	}
}

// Ready reports whether lookups can be answered: the rotation loads and the store is readable.
func (s *Service) Ready(ctx context.Context) error {
	_, _, err := s.loadRotation(ctx)
	return err
}

// ChangelogMarkdown returns the raw changelog document.
func (s *Service) ChangelogMarkdown() string {
	return string(s.changelog)
}

// Today returns the current calendar date in the clock's location.
func (s *Service) Today() domain.Date {
	return domain.DateOf(s.clock())
}

// targetDate parses raw or falls back to today.
func (s *Service) targetDate(raw, field string) (domain.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Today(), nil
	}
	return domain.ParseDateField(field, raw)
}

// loadRotation returns the rotation plus persistent overrides: configured first, then stored.
func (s *Service) loadRotation(ctx context.Context) (Rotation, []domain.Override, error) {
	rotation, err := s.rotation()
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConfig) {
			return Rotation{}, nil, err
		}
		return Rotation{}, nil, fmt.Errorf("%w: %v", ErrRotationUnavailable, err)
	}
	persistent := append([]domain.Override(nil), rotation.Overrides...)
	if s.store == nil {
		return rotation, persistent, nil
	}
	stored, err := s.store.ListOverrides(ctx)
	if err != nil {
		return Rotation{}, nil, fmt.Errorf("list stored overrides: %w", err)
	}
	for _, record := range stored {
		persistent = append(persistent, record.Override())
	}
	return rotation, persistent, nil
}

// requireStore returns the override store or a descriptive error.
func (s *Service) requireStore() (OverrideStore, error) {
	if s.store == nil {
		return nil, fmt.Errorf("override store is not configured: %w", ErrRotationUnavailable)
	}
	return s.store, nil
}
