package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/domain"
)

// newTestService returns an app service over a weekly three-person rotation pinned to 2025-09-03.
func newTestService(t *testing.T) *app.Service {
	t.Helper()
	cfg, err := domain.NewRotationConfig([]string{"Alice", "Bob", "Carol"}, domain.NewDate(2025, time.August, 25), 7)
	if err != nil {
		t.Fatalf("NewRotationConfig() error = %v", err)
	}
	now := time.Date(2025, time.September, 3, 9, 0, 0, 0, time.UTC)
	return app.NewService(nil, app.StaticRotation(app.Rotation{Config: cfg}, nil), nil, func() time.Time { return now }, app.ServiceConfig{})
}

// failingService always fails to load.
type failingService struct{}

func (failingService) Schedule(context.Context, app.ScheduleRequest) (app.Schedule, error) {
	return app.Schedule{}, errors.New("rotation missing")
}

func (failingService) Today() domain.Date {
	return domain.NewDate(2025, time.September, 3)
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// loadedModel returns a sized model with its first page loaded.
func loadedModel(t *testing.T, opts ...Option) Model {
	t.Helper()
	opts = append([]Option{WithMarkdownStyle("notty")}, opts...)
	m := NewModel(newTestService(t), opts...)
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return applyCmd(t, m, m.Init())
}

func TestModelLoadsFromToday(t *testing.T) {
	m := loadedModel(t)
	if m.err != nil {
		t.Fatalf("unexpected load error %v", m.err)
	}
	if got := len(m.schedule.Assignments); got != defaultDays {
		t.Fatalf("expected %d days, got %d", defaultDays, got)
	}
	if m.schedule.From.String() != "2025-09-03" {
		t.Fatalf("expected page to start today, got %s", m.schedule.From)
	}
	if first := m.schedule.Assignments[0]; first.Name != "Bob" {
		t.Fatalf("expected Bob on 2025-09-03, got %q", first.Name)
	}

	if v := m.View(); v.Content == nil || !v.AltScreen {
		t.Fatal("expected alt-screen view with content")
	}
	view := m.content()
	for _, want := range []string{"oncall", "2025-09-03", "Bob", "Carol"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelWeekNavigation(t *testing.T) {
	m := loadedModel(t, WithDays(7))

	m = applyMsg(t, m, keyRune('l'))
	if m.schedule.From.String() != "2025-09-10" {
		t.Fatalf("expected next week from 2025-09-10, got %s", m.schedule.From)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if m.schedule.From.String() != "2025-09-17" {
		t.Fatalf("expected arrow to advance to 2025-09-17, got %s", m.schedule.From)
	}
	m = applyMsg(t, m, keyRune('h'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	m = applyMsg(t, m, keyRune('h'))
	if m.schedule.From.String() != "2025-08-27" {
		t.Fatalf("expected 2025-08-27 after moving back, got %s", m.schedule.From)
	}
	m = applyMsg(t, m, keyRune('t'))
	if m.schedule.From.String() != "2025-09-03" || m.cursor != 0 {
		t.Fatalf("expected today with cursor reset, got %s cursor=%d", m.schedule.From, m.cursor)
	}
}

func TestModelCursorAndCopy(t *testing.T) {
	var copied []string
	m := loadedModel(t, WithDays(7), WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	}))

	m = applyMsg(t, m, keyRune('k'))
	if m.cursor != 0 {
		t.Fatalf("expected cursor clamped at 0, got %d", m.cursor)
	}
	for range 5 {
		m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if m.cursor != 5 {
		t.Fatalf("expected cursor 5, got %d", m.cursor)
	}
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	if m.cursor != 6 {
		t.Fatalf("expected cursor clamped at 6, got %d", m.cursor)
	}
	// 2025-09-09 is the first day of Carol's slot.
	m = applyMsg(t, m, keyRune('y'))
	if len(copied) != 1 || copied[0] != "Carol" {
		t.Fatalf("expected Carol copied, got %#v", copied)
	}
	if !strings.Contains(m.status, "Carol") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = loadedModel(t, WithClipboard(func(string) error { return errors.New("no display") }))
	m = applyMsg(t, m, keyRune('y'))
	if !strings.HasPrefix(m.status, "copy failed") {
		t.Fatalf("expected copy failure status, got %q", m.status)
	}
}

func TestModelShowsAdhocOverrides(t *testing.T) {
	m := loadedModel(t, WithDays(3), WithOverrides("Eve:2025-09-04"))
	if got := m.schedule.Assignments[1]; got.Name != "Eve" || got.Source != domain.SourceOverride {
		t.Fatalf("expected Eve override on day 2, got %#v", got)
	}
	if !strings.Contains(m.content(), "override") {
		t.Fatal("expected override marker in view")
	}
	if m.status != "ready, ad-hoc Eve:2025-09-04" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestReadyStatusNormalizesAdhocList(t *testing.T) {
	cases := map[string]string{
		"":                                    "ready",
		"  ":                                  "ready",
		" Eve : 2025-09-04 ,, Zed:2025-09-18": "ready, ad-hoc Eve:2025-09-04,Zed:2025-09-18",
	}
	for in, want := range cases {
		if got := readyStatus(in); got != want {
			t.Fatalf("readyStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestModelLoadErrorAndQuit(t *testing.T) {
	m := NewModel(failingService{})
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = applyCmd(t, m, m.Init())
	if m.err == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(m.content(), "rotation missing") {
		t.Fatalf("expected error in view, got %q", m.content())
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestModelToggleHelp(t *testing.T) {
	m := loadedModel(t)
	if m.help.ShowAll {
		t.Fatal("expected short help by default")
	}
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected full help after toggle")
	}
}

func TestAssignmentMarkdown(t *testing.T) {
	applied := domain.Override{Date: domain.NewDate(2025, time.September, 10), Name: "Eve"}
	md := assignmentMarkdown(domain.ResolvedAssignment{
		Date:            domain.NewDate(2025, time.September, 12),
		Name:            "Eve",
		Source:          domain.SourceOverride,
		RotationStart:   domain.NewDate(2025, time.August, 25),
		PeriodDays:      7,
		SlotIndex:       2,
		SlotStart:       domain.NewDate(2025, time.September, 8),
		RosterIndex:     2,
		RosterSize:      3,
		ScheduledName:   "Carol",
		AppliedOverride: &applied,
	})
	for _, want := range []string{"## Eve", "started 2025-09-08", "Carol (3 of 3)", "Override by Eve since 2025-09-10"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
