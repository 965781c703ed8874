package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hylla/oncall/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// RotationEnvVar holds the rotation section as JSON. LegacyRotationEnvVar is read when it is unset.
const (
	RotationEnvVar       = "ONCALL_ROTATION_CONFIG"
	LegacyRotationEnvVar = "MCP_ROTATION_CONFIG"
)

// SourceNone is reported when no rotation has been configured anywhere.
const SourceNone = "none"

type Config struct {
	Rotation RotationConfig `toml:"rotation" yaml:"rotation" json:"rotation"`
	Database DatabaseConfig `toml:"database" yaml:"database" json:"database"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging" json:"logging"`
	Server   ServerConfig   `toml:"server" yaml:"server" json:"server"`
	TUI      TUIConfig      `toml:"tui" yaml:"tui" json:"tui"`

	// Source records where the rotation section came from: env:<VAR>, file:<path> or none.
	Source string `toml:"-" yaml:"-" json:"-"`
}

// RotationConfig mirrors the on-disk rotation section.
type RotationConfig struct {
	Engineers    []string         `toml:"engineers" yaml:"engineers" json:"engineers"`
	StartDate    string           `toml:"start_date" yaml:"start_date" json:"start_date"`
	RotationDays int              `toml:"rotation_days" yaml:"rotation_days" json:"rotation_days"`
	Overrides    []OverrideConfig `toml:"overrides" yaml:"overrides" json:"overrides"`
}

type OverrideConfig struct {
	Date     string `toml:"date" yaml:"date" json:"date"`
	Engineer string `toml:"engineer" yaml:"engineer" json:"engineer"`
}

type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path" json:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level" yaml:"level" json:"level"`
	DevFile DevFileConfig `toml:"dev_file" yaml:"dev_file" json:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled" json:"enabled"`
	Dir     string `toml:"dir" yaml:"dir" json:"dir"`
}

type ServerConfig struct {
	HTTP        string `toml:"http" yaml:"http" json:"http"`
	APIEndpoint string `toml:"api_endpoint" yaml:"api_endpoint" json:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint" yaml:"mcp_endpoint" json:"mcp_endpoint"`
}

type TUIConfig struct {
	Days             int    `toml:"days" yaml:"days" json:"days"`
	MarkdownStyle    string `toml:"markdown_style" yaml:"markdown_style" json:"markdown_style"`
	HighlightWeekend bool   `toml:"highlight_weekend" yaml:"highlight_weekend" json:"highlight_weekend"`
}

func Default(dbPath string) Config {
	return Config{
		Rotation: RotationConfig{
			RotationDays: domain.DefaultPeriodDays,
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".oncall/log",
			},
		},
		Server: ServerConfig{
			HTTP:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		TUI: TUIConfig{
			Days:             14,
			MarkdownStyle:    "dark",
			HighlightWeekend: true,
		},
		Source: SourceNone,
	}
}

// Load decodes the file at path over defaults. The decoder follows the extension:
// .yaml/.yml use YAML, .json/.jsonc use JSON with comments, anything else is TOML.
// A missing or empty file leaves defaults untouched.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return cfg, nil
	}

	if err := decode(path, content, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Rotation.Engineers) > 0 {
		cfg.Source = "file:" + path
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode dispatches on the file extension.
func decode(path string, content []byte, out *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, out); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(content), out); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	default:
		if err := toml.Unmarshal(content, out); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	}
	return nil
}

// ApplyRotationEnv replaces the rotation section with the JSON held in the rotation env vars.
// lookup is usually os.LookupEnv.
func ApplyRotationEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		return cfg, nil
	}
	for _, name := range []string{RotationEnvVar, LegacyRotationEnvVar} {
		raw, ok := lookup(name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		var rotation RotationConfig
		if err := json.Unmarshal(jsonc.ToJSON([]byte(raw)), &rotation); err != nil {
			return Config{}, fmt.Errorf("invalid JSON in %s: %w", name, err)
		}
		cfg.Rotation = rotation
		cfg.Source = "env:" + name
		return cfg, nil
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.TUI.Days < 0 {
		return fmt.Errorf("tui.days must be >= 0")
	}
	for idx, o := range c.Rotation.Overrides {
		if strings.TrimSpace(o.Engineer) == "" {
			return fmt.Errorf("rotation.overrides[%d].engineer is required", idx)
		}
		if _, err := domain.ParseDate(o.Date); err != nil {
			return fmt.Errorf("rotation.overrides[%d].date %q: expected YYYY-MM-DD", idx, o.Date)
		}
	}
	return nil
}

// Build converts the rotation section into the engine's inputs.
// Configured overrides come back in file order tagged as persistent.
func (r RotationConfig) Build() (domain.RotationConfig, []domain.Override, error) {
	if len(r.Engineers) == 0 {
		return domain.RotationConfig{}, nil, domain.ErrEmptyRoster
	}
	if strings.TrimSpace(r.StartDate) == "" {
		return domain.RotationConfig{}, nil, fmt.Errorf("%w: start_date is required", domain.ErrInvalidConfig)
	}
	start, err := domain.ParseDate(r.StartDate)
	if err != nil {
		return domain.RotationConfig{}, nil, fmt.Errorf("%w: start_date %q: expected YYYY-MM-DD", domain.ErrInvalidConfig, r.StartDate)
	}
	rotation, err := domain.NewRotationConfig(r.Engineers, start, r.RotationDays)
	if err != nil {
		return domain.RotationConfig{}, nil, err
	}
	overrides := make([]domain.Override, 0, len(r.Overrides))
	for idx, raw := range r.Overrides {
		date, err := domain.ParseDate(raw.Date)
		if err != nil {
			return domain.RotationConfig{}, nil, fmt.Errorf("%w: overrides[%d].date %q: expected YYYY-MM-DD", domain.ErrInvalidConfig, idx, raw.Date)
		}
		o, err := domain.NewOverride(raw.Engineer, date, domain.OriginPersistent)
		if err != nil {
			return domain.RotationConfig{}, nil, fmt.Errorf("%w: overrides[%d]: %v", domain.ErrInvalidConfig, idx, err)
		}
		overrides = append(overrides, o)
	}
	return rotation, overrides, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteExample writes a starter TOML config when path does not exist yet.
func WriteExample(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
