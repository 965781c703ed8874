package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/hylla/oncall"
	serveradapter "github.com/hylla/oncall/internal/adapters/server"
	servercommon "github.com/hylla/oncall/internal/adapters/server/common"
	"github.com/hylla/oncall/internal/adapters/server/mcpapi"
	"github.com/hylla/oncall/internal/adapters/storage/sqlite"
	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/config"
	"github.com/hylla/oncall/internal/domain"
	"github.com/hylla/oncall/internal/platform"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// stdioCommandRunner serves MCP over stdin/stdout.
var stdioCommandRunner = mcpapi.ServeStdio

// clipboardWrite copies text for `who --copy`.
var clipboardWrite = clipboard.WriteAll

// now is the clock used for services and log file names.
var now = time.Now

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(&cli{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetIn(os.Stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// cli holds global flag state shared by every command.
type cli struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// newRootCommand builds the command tree.
func newRootCommand(c *cli) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("ONCALL_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("ONCALL_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "oncall",
		Short: "Answer who is on call for a rotation",
		Long: "oncall resolves the engineer on call for any date from a fixed rotation,\n" +
			"applying persistent and ad-hoc overrides. It serves the same answers over\n" +
			"a REST API and the Model Context Protocol.",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to config file (toml, yaml or jsonc)")
	flags.StringVar(&c.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&c.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&c.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newWhoCommand(c),
		newScheduleCommand(c),
		newOverrideCommand(c),
		newServeCommand(c),
		newMCPCommand(c),
		newVersionCommand(c),
		newChangelogCommand(c),
		newBrowseCommand(c),
		newPathsCommand(c),
		newInitCommand(c),
	)
	return root
}

// session is one resolved runtime: config, logger, store and service.
type session struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
	adapter    *servercommon.AppServiceAdapter
}

// resolvePaths returns platform paths plus the effective config and db paths.
func (c *cli) resolvePaths() (platform.Paths, string, string, bool, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: c.appName,
		DevMode: c.devMode,
	})
	if err != nil {
		return platform.Paths{}, "", "", false, err
	}
	configPath := strings.TrimSpace(c.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("ONCALL_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(c.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("ONCALL_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}
	return paths, configPath, dbPath, dbOverridden, nil
}

// open resolves config, starts logging and opens the override store for one command.
func (c *cli) open(command string, console bool) (*session, error) {
	paths, configPath, dbPath, dbOverridden, err := c.resolvePaths()
	if err != nil {
		return nil, err
	}

	defaultCfg := config.Default(dbPath)
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(c.stderr, c.appName, c.devMode, cfg.Logging, now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the browser is active.
	logger.SetConsoleEnabled(console)

	logger.Info("startup configuration resolved", "app", c.appName, "dev_mode", c.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Debug("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	rotation := newRotationProvider(configPath, defaultCfg, os.LookupEnv, logger)
	svc := app.NewService(repo, rotation, uuid.NewString, now, app.ServiceConfig{
		Version:   version,
		Changelog: oncall.Changelog,
	})
	logger.Debug("application service initialized", "version", version)

	return &session{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		svc:        svc,
		adapter:    servercommon.NewAppServiceAdapter(svc),
	}, nil
}

// Close releases the store and the dev-file sink.
func (s *session) Close() {
	if s == nil {
		return
	}
	if err := s.repo.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", err)
	}
	if err := s.logger.Close(); err != nil && s.logger.shouldLogToSink(s.logger.consoleSink) {
		s.logger.Warn("close runtime log sink failed", "err", err)
	}
}

// runCommand wraps one command flow with start/complete/failed logging.
func (s *session) runCommand(command string, fn func() error) error {
	s.logger.Info("command flow start", "command", command)
	if err := fn(); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return err
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

// newRotationProvider rereads the config file and env on every call so a running server sees edits.
// File errors are reported as configuration errors; they never stop the process from starting.
func newRotationProvider(configPath string, defaults config.Config, lookup func(string) (string, bool), logger *runtimeLogger) app.RotationProvider {
	return func() (app.Rotation, error) {
		cfg, err := config.Load(configPath, defaults)
		if err != nil {
			logger.Warn("rotation config load failed", "config_path", configPath, "err", err)
			return app.Rotation{Source: "file:" + configPath}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		cfg, err = config.ApplyRotationEnv(cfg, lookup)
		if err != nil {
			logger.Warn("rotation env config invalid", "err", err)
			return app.Rotation{Source: config.SourceNone}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		rotationCfg, overrides, err := cfg.Rotation.Build()
		if err != nil {
			return app.Rotation{Source: cfg.Source}, err
		}
		return app.Rotation{Config: rotationCfg, Overrides: overrides, Source: cfg.Source}, nil
	}
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
