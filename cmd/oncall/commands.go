package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hylla/oncall"
	serveradapter "github.com/hylla/oncall/internal/adapters/server"
	"github.com/hylla/oncall/internal/adapters/server/mcpapi"
	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/config"
	"github.com/hylla/oncall/internal/domain"
	"github.com/hylla/oncall/internal/tui"
	"github.com/spf13/cobra"
)

// newWhoCommand answers who is on call for one date.
func newWhoCommand(c *cli) *cobra.Command {
	var (
		overrides string
		asJSON    bool
		copyName  bool
	)
	cmd := &cobra.Command{
		Use:   "who [DATE]",
		Short: "Show who is on call (default today)",
		Example: "  oncall who\n" +
			"  oncall who 2025-09-03 --overrides 'Eve:2025-09-01'",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("who", true)
			if err != nil {
				return err
			}
			defer s.Close()

			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			return s.runCommand("who", func() error {
				assignment, err := s.svc.WhoIsOnCall(cmd.Context(), app.OnCallRequest{Date: date, Overrides: overrides})
				if err != nil {
					return err
				}
				if copyName {
					if err := clipboardWrite(assignment.Name); err != nil {
						return fmt.Errorf("copy to clipboard: %w", err)
					}
					s.logger.Debug("engineer copied to clipboard", "engineer", assignment.Name)
				}
				if asJSON {
					return writeJSON(c.stdout, assignment)
				}
				_, err = fmt.Fprintln(c.stdout, describeAssignment(assignment))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&overrides, "overrides", "", "ad-hoc overrides as Name:YYYY-MM-DD[,Name:YYYY-MM-DD]")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full assignment as JSON")
	cmd.Flags().BoolVar(&copyName, "copy", false, "copy the engineer name to the clipboard")
	return cmd
}

// newScheduleCommand prints a table of assignments.
func newScheduleCommand(c *cli) *cobra.Command {
	var (
		from      string
		days      int
		overrides string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "List who is on call for a range of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open("schedule", true)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.runCommand("schedule", func() error {
				schedule, err := s.svc.Schedule(cmd.Context(), app.ScheduleRequest{From: from, Days: days, Overrides: overrides})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(c.stdout, schedule)
				}
				_, err = fmt.Fprintln(c.stdout, renderScheduleTable(schedule, s.svc.Today()))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 0, fmt.Sprintf("number of days (default %d, max %d)", app.DefaultScheduleDays, app.MaxScheduleDays))
	cmd.Flags().StringVar(&overrides, "overrides", "", "ad-hoc overrides as Name:YYYY-MM-DD[,Name:YYYY-MM-DD]")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the schedule as JSON")
	return cmd
}

// newOverrideCommand groups stored override management.
func newOverrideCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage stored overrides",
	}

	var note string
	add := &cobra.Command{
		Use:   "add NAME DATE",
		Short: "Store an override that applies from DATE until the next rotation boundary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("override add", true)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.runCommand("override add", func() error {
				record, err := s.svc.AddOverride(cmd.Context(), app.AddOverrideRequest{Engineer: args[0], Date: args[1], Note: note})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.stdout, "added %s: %s from %s\n", record.ID, record.Name, record.Date)
				return err
			})
		},
	}
	add.Flags().StringVar(&note, "note", "", "free-form note kept with the override")

	var listJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured and stored overrides",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open("override list", true)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.runCommand("override list", func() error {
				listing, err := s.svc.ListOverrides(cmd.Context())
				if err != nil {
					return err
				}
				if listJSON {
					return writeJSON(c.stdout, listing)
				}
				return writeOverrideListing(c.stdout, listing)
			})
		},
	}
	list.Flags().BoolVar(&listJSON, "json", false, "print overrides as JSON")

	var showJSON bool
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one stored override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("override show", true)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.runCommand("override show", func() error {
				record, err := s.svc.GetOverride(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if showJSON {
					return writeJSON(c.stdout, record)
				}
				_, err = fmt.Fprintf(c.stdout, "%s  added %s\n", describeRecord(record), record.CreatedAt.Format(time.RFC3339))
				return err
			})
		},
	}
	show.Flags().BoolVar(&showJSON, "json", false, "print the override as JSON")

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a stored override",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open("override rm", true)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.runCommand("override rm", func() error {
				if err := s.svc.RemoveOverride(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(c.stdout, "removed %s\n", args[0])
				return err
			})
		},
	}

	cmd.AddCommand(add, list, show, rm)
	return cmd
}

// newServeCommand starts the HTTP API and MCP endpoint.
func newServeCommand(c *cli) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open("serve", true)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := serveradapter.Config{
				HTTPBind:      firstNonEmpty(httpBind, s.cfg.Server.HTTP),
				APIEndpoint:   firstNonEmpty(apiEndpoint, s.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, s.cfg.Server.MCPEndpoint),
				ServerName:    c.appName,
				ServerVersion: version,
			}
			return s.runCommand("serve", func() error {
				s.logger.Info("serve listening", "http", cfg.HTTPBind, "api_endpoint", cfg.APIEndpoint, "mcp_endpoint", cfg.MCPEndpoint)
				return serveCommandRunner(cmd.Context(), cfg, serveradapter.Dependencies{
					OnCall:    s.adapter,
					Overrides: s.adapter,
					Readiness: s.adapter,
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "bind address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST API mount path (default /api/v1)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (default /mcp)")
	return cmd
}

// newMCPCommand serves MCP over stdio.
func newMCPCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open("mcp", true)
			if err != nil {
				return err
			}
			defer s.Close()
			return s.runCommand("mcp", func() error {
				return stdioCommandRunner(cmd.Context(), mcpapi.Config{
					ServerName:    c.appName,
					ServerVersion: version,
				}, s.adapter, s.adapter, cmd.InOrStdin(), c.stdout)
			})
		},
	}
}

// newVersionCommand reports version and rotation source.
func newVersionCommand(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version, changelog and config source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.open("version", true)
			if err != nil {
				return err
			}
			defer s.Close()
			info := s.svc.Version(cmd.Context())
			if asJSON {
				return writeJSON(c.stdout, info)
			}
			_, err = fmt.Fprintf(c.stdout, "oncall %s\nconfig source: %s\n", info.CurrentVersion, info.RotationConfig.ConfigSource)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version info as JSON")
	return cmd
}

// newChangelogCommand renders the embedded changelog.
func newChangelogCommand(c *cli) *cobra.Command {
	var (
		style string
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Show the release history",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if raw {
				_, err := c.stdout.Write(oncall.Changelog)
				return err
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(style),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("configure markdown renderer: %w", err)
			}
			rendered, err := renderer.Render(string(oncall.Changelog))
			if err != nil {
				return fmt.Errorf("render changelog: %w", err)
			}
			_, err = io.WriteString(c.stdout, rendered)
			return err
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty, ...)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width")
	return cmd
}

// newBrowseCommand opens the interactive schedule browser.
func newBrowseCommand(c *cli) *cobra.Command {
	var overrides string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the schedule interactively",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := c.open("browse", false)
			if err != nil {
				return err
			}
			defer s.Close()

			m := tui.NewModel(
				s.svc,
				tui.WithDays(s.cfg.TUI.Days),
				tui.WithMarkdownStyle(s.cfg.TUI.MarkdownStyle),
				tui.WithHighlightWeekend(s.cfg.TUI.HighlightWeekend),
				tui.WithOverrides(overrides),
			)
			return s.runCommand("browse", func() error {
				s.logger.Info("starting tui program loop")
				if _, err := programFactory(m).Run(); err != nil {
					return fmt.Errorf("run tui program: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&overrides, "overrides", "", "ad-hoc overrides applied to every page")
	return cmd
}

// newPathsCommand prints resolved paths.
func newPathsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, configPath, dbPath, _, err := c.resolvePaths()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.stdout, "app: %s\n", c.appName)
			_, _ = fmt.Fprintf(c.stdout, "dev_mode: %t\n", c.devMode)
			_, _ = fmt.Fprintf(c.stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(c.stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(c.stdout, "db: %s\n", dbPath)
			return nil
		},
	}
}

// newInitCommand writes a starter config file.
func newInitCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, configPath, dbPath, _, err := c.resolvePaths()
			if err != nil {
				return err
			}
			example := config.Default(dbPath)
			example.Rotation = config.RotationConfig{
				Engineers:    []string{"Alice", "Bob", "Carol"},
				StartDate:    domain.DateOf(now()).String(),
				RotationDays: domain.DefaultPeriodDays,
				Overrides:    []config.OverrideConfig{},
			}
			written, err := config.WriteExample(configPath, example)
			if err != nil {
				return err
			}
			if !written {
				_, err = fmt.Fprintf(c.stdout, "config already exists: %s\n", configPath)
				return err
			}
			_, err = fmt.Fprintf(c.stdout, "wrote config: %s\n", configPath)
			return err
		},
	}
}

// describeAssignment renders one assignment as a single line.
func describeAssignment(a domain.ResolvedAssignment) string {
	line := fmt.Sprintf("%s  %s", a.Date, a.Name)
	if a.AppliedOverride != nil {
		return line + fmt.Sprintf("  (override since %s, scheduled %s)", a.AppliedOverride.Date, a.ScheduledName)
	}
	return line + "  (schedule)"
}

// renderScheduleTable renders one schedule as a bordered table. Today's row is bold.
func renderScheduleTable(schedule app.Schedule, today domain.Date) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	todayStyle := cellStyle.Bold(true).Foreground(lipgloss.Color("62"))
	overrideStyle := cellStyle.Foreground(lipgloss.Color("214"))

	rows := make([][]string, 0, len(schedule.Assignments))
	for _, a := range schedule.Assignments {
		rows = append(rows, []string{a.Date.String(), a.Date.Weekday().String()[:3], a.Name, string(a.Source)})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))).
		Headers("DATE", "DAY", "ENGINEER", "SOURCE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(schedule.Assignments):
				return cellStyle
			case schedule.Assignments[row].Date == today:
				return todayStyle
			case col == 3 && schedule.Assignments[row].Source == domain.SourceOverride:
				return overrideStyle
			default:
				return cellStyle
			}
		}).
		Render()
}

// writeOverrideListing prints configured then stored overrides in precedence order.
func writeOverrideListing(w io.Writer, listing app.OverrideListing) error {
	if len(listing.Configured) == 0 && len(listing.Stored) == 0 {
		_, err := fmt.Fprintln(w, "no overrides")
		return err
	}
	var b strings.Builder
	for _, o := range listing.Configured {
		fmt.Fprintf(&b, "config  %s  %s\n", o.Date, o.Name)
	}
	for _, r := range listing.Stored {
		b.WriteString(describeRecord(r))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// describeRecord renders one stored override as `ID  DATE  NAME  # note`.
func describeRecord(r domain.OverrideRecord) string {
	line := fmt.Sprintf("%s  %s  %s", r.ID, r.Date, r.Name)
	if r.Note != "" {
		line += "  # " + r.Note
	}
	return line
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	encoded = append(encoded, '\n')
	_, err = w.Write(encoded)
	return err
}

// firstNonEmpty returns the first argument that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
