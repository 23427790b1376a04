package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/namanNagelia/canvasAgents/model"
)

// Config holds all canvas client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	UI      UIConfig      `yaml:"ui"`
	Diagram DiagramConfig `yaml:"diagram"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig points the client at the learning backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type UIConfig struct {
	Theme        string `yaml:"theme"` // auto, dark, light, notty
	WordWrap     int    `yaml:"word_wrap"`
	DefaultAgent string `yaml:"default_agent"`
	ShowPlanning bool   `yaml:"show_planning"`
}

// DiagramConfig selects how mermaid sources are rendered.
type DiagramConfig struct {
	Renderer  string `yaml:"renderer"` // check, mmdc
	MMDCPath  string `yaml:"mmdc_path"`
	OutputDir string `yaml:"output_dir"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Dir returns ~/.config/canvas.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "canvas")
}

// DefaultPath is the config file location when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "120s",
		},
		UI: UIConfig{
			Theme:        "auto",
			WordWrap:     100,
			DefaultAgent: string(model.AgentGeneral),
		},
		Diagram: DiagramConfig{
			Renderer:  "check",
			MMDCPath:  "mmdc",
			OutputDir: filepath.Join(dir, "diagrams"),
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "transcripts.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dir, "canvas.log"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// WriteDefaults saves the built-in defaults to path unless a file is
// already there. It reports whether it wrote one.
func WriteDefaults(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := DefaultConfig().Save(path); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CANVAS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("CANVAS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CANVAS_MMDC"); v != "" {
		c.Diagram.Renderer = "mmdc"
		c.Diagram.MMDCPath = v
	}
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch c.Diagram.Renderer {
	case "", "check", "mmdc":
	default:
		return fmt.Errorf("unknown diagram renderer %q", c.Diagram.Renderer)
	}
	return nil
}

// Timeout parses api.timeout; empty means 120s.
func (c *Config) Timeout() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 120 * time.Second, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	return d, nil
}

// DefaultAgent returns the configured agent, or general when unknown.
func (c *Config) DefaultAgent() model.AgentKind {
	if a, ok := model.LookupAgent(model.AgentKind(c.UI.DefaultAgent)); ok {
		return a.Kind
	}
	return model.AgentGeneral
}

// TokenPath is where the bearer token persists between runs.
func TokenPath() string {
	return filepath.Join(Dir(), "token")
}
