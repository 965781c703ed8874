// Package tui implements the interactive schedule browser.
package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/domain"
)

// defaultDays is one page of the browser.
const defaultDays = 14

// Service is the app surface the browser reads from.
type Service interface {
	Schedule(context.Context, app.ScheduleRequest) (app.Schedule, error)
	Today() domain.Date
}

// Model is the bubbletea model for the schedule browser.
type Model struct {
	svc              Service
	keys             keyMap
	help             help.Model
	markdown         markdownRenderer
	copyText         func(string) error
	from             domain.Date
	today            domain.Date
	days             int
	overrides        string
	highlightWeekend bool

	schedule app.Schedule
	loaded   bool
	cursor   int
	status   string
	err      error
	ready    bool
	width    int
	height   int
}

// scheduleLoadedMsg carries one loaded page.
type scheduleLoadedMsg struct {
	schedule app.Schedule
	err      error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:      svc,
		keys:     newKeyMap(),
		help:     h,
		markdown: markdownRenderer{style: defaultMarkdownStyle},
		copyText: clipboard.WriteAll,
		days:     defaultDays,
		status:   "loading...",
	}
	if svc != nil {
		m.today = svc.Today()
		m.from = m.today
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadSchedule
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case scheduleLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "load failed"
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.schedule = msg.schedule
		m.cursor = clamp(m.cursor, 0, len(m.schedule.Assignments)-1)
		m.status = readyStatus(m.overrides)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	default:
		return m, nil
	}
}

// handleKey applies one key press.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadSchedule
	case key.Matches(msg, m.keys.prevWeek):
		m.from = m.from.AddDays(-7)
		m.status = "loading..."
		return m, m.loadSchedule
	case key.Matches(msg, m.keys.nextWeek):
		m.from = m.from.AddDays(7)
		m.status = "loading..."
		return m, m.loadSchedule
	case key.Matches(msg, m.keys.today):
		if m.svc != nil {
			m.today = m.svc.Today()
		}
		m.from = m.today
		m.cursor = 0
		m.status = "loading..."
		return m, m.loadSchedule
	case key.Matches(msg, m.keys.moveUp):
		m.cursor = clamp(m.cursor-1, 0, len(m.schedule.Assignments)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.cursor = clamp(m.cursor+1, 0, len(m.schedule.Assignments)-1)
		return m, nil
	case key.Matches(msg, m.keys.copyName):
		assignment, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.copyText(assignment.Name); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + assignment.Name
		return m, nil
	default:
		return m, nil
	}
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.content())
	v.AltScreen = true
	return v
}

// content renders the full screen as plain text.
func (m Model) content() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready || !m.loaded {
		return "loading..."
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("oncall") + "  " + lipgloss.NewStyle().Foreground(muted).Render(
		fmt.Sprintf("%s → %s", m.schedule.From, m.schedule.Until.AddDays(-1)),
	)
	table := m.renderRows(accent, muted)
	detail := ""
	if assignment, ok := m.selected(); ok {
		detailWidth := max(24, m.width/2-4)
		detail = m.markdown.render(assignmentMarkdown(assignment), detailWidth)
	}
	body := table
	if detail != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, table, "  ", detail)
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	content := strings.Join([]string{header, "", body, "", statusStyle.Render(m.status)}, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	return content + "\n" + helpLine
}

// renderRows renders one line per day.
func (m Model) renderRows(accent, muted color.Color) string {
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	overrideStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	weekendStyle := lipgloss.NewStyle().Foreground(muted)

	lines := make([]string, 0, len(m.schedule.Assignments))
	for idx, a := range m.schedule.Assignments {
		marker := "  "
		if a.Date == m.today {
			marker = "▸ "
		}
		line := fmt.Sprintf("%s%s %s  %-16s", marker, a.Date, a.Date.Weekday().String()[:3], a.Name)
		if a.Source == domain.SourceOverride {
			line += " " + overrideStyle.Render("override")
		}
		switch {
		case idx == m.cursor:
			line = selectedStyle.Render(line)
		case m.highlightWeekend && isWeekend(a.Date):
			line = weekendStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// selected returns the assignment under the cursor.
func (m Model) selected() (domain.ResolvedAssignment, bool) {
	if m.cursor < 0 || m.cursor >= len(m.schedule.Assignments) {
		return domain.ResolvedAssignment{}, false
	}
	return m.schedule.Assignments[m.cursor], true
}

// loadSchedule fetches the page starting at m.from.
func (m Model) loadSchedule() tea.Msg {
	if m.svc == nil {
		return scheduleLoadedMsg{err: fmt.Errorf("schedule service is not configured")}
	}
	schedule, err := m.svc.Schedule(context.Background(), app.ScheduleRequest{
		From:      m.from.String(),
		Days:      m.days,
		Overrides: m.overrides,
	})
	return scheduleLoadedMsg{schedule: schedule, err: err}
}

// readyStatus echoes the active ad-hoc overrides in canonical form.
func readyStatus(raw string) string {
	adhoc, err := domain.ParseOverrides(raw)
	if err != nil || len(adhoc) == 0 {
		return "ready"
	}
	return "ready, ad-hoc " + domain.FormatOverrides(adhoc)
}

// assignmentMarkdown describes one day for the detail pane.
func assignmentMarkdown(a domain.ResolvedAssignment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", a.Name)
	fmt.Fprintf(&b, "- **Date:** %s (%s)\n", a.Date, a.Date.Weekday())
	fmt.Fprintf(&b, "- **Source:** %s\n", a.Source)
	fmt.Fprintf(&b, "- **Slot:** %d, started %s (every %d days from %s)\n", a.SlotIndex, a.SlotStart, a.PeriodDays, a.RotationStart)
	if a.ScheduledName != "" {
		fmt.Fprintf(&b, "- **Scheduled:** %s (%d of %d)\n", a.ScheduledName, a.RosterIndex+1, a.RosterSize)
	}
	if a.AppliedOverride != nil {
		fmt.Fprintf(&b, "\n> Override by %s since %s\n", a.AppliedOverride.Name, a.AppliedOverride.Date)
	}
	return b.String()
}

// isWeekend reports whether d falls on Saturday or Sunday.
func isWeekend(d domain.Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// clamp bounds v to [minV, maxV], preferring minV when the range is empty.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines truncates or pads content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}
