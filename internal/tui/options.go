package tui

// Option configures a Model.
type Option func(*Model)

// WithDays sets how many days each page shows. Values below 1 keep the default.
func WithDays(days int) Option {
	return func(m *Model) {
		if days > 0 {
			m.days = days
		}
	}
}

// WithOverrides applies one ad-hoc override string to every page.
func WithOverrides(raw string) Option {
	return func(m *Model) {
		m.overrides = raw
	}
}

// WithMarkdownStyle selects the glamour style for the detail pane.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		m.markdown.style = style
	}
}

// WithHighlightWeekend dims Saturday and Sunday rows.
func WithHighlightWeekend(enabled bool) Option {
	return func(m *Model) {
		m.highlightWeekend = enabled
	}
}

// WithClipboard replaces the clipboard writer used by the copy binding.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
