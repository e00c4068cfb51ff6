package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rubrical-studios/gh-gfi/internal/api"
)

// ConfigFileName is the default configuration file name
const ConfigFileName = ".gh-gfi.yml"

// DefaultBaseURL is the catalog endpoint used when none is configured
const DefaultBaseURL = "http://localhost:8080/api"

// Environment variables that override file settings
const (
	EnvEndpoint = "GH_GFI_ENDPOINT"
	EnvLogLevel = "GH_GFI_LOG_LEVEL"
)

// ErrConfigNotFound is returned by FindConfigFile when no file exists in the
// directory tree
var ErrConfigNotFound = errors.New("config file not found")

// Config represents the .gh-gfi.yml configuration file
type Config struct {
	Endpoint  Endpoint `yaml:"endpoint"`
	Feed      Feed     `yaml:"feed"`
	Catalog   Catalog  `yaml:"catalog"`
	Languages []string `yaml:"languages,omitempty" validate:"dive,required"`
	Log       Log      `yaml:"log"`
}

// Endpoint describes the remote issue catalog
type Endpoint struct {
	BaseURL  string        `yaml:"base_url" validate:"required,url,startswith=http"`
	Timeout  time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	TimeUnit string        `yaml:"time_unit,omitempty" validate:"omitempty,oneof=minutes hours"`
}

// Feed tunes the paginated browse loop
type Feed struct {
	PageSize    int           `yaml:"page_size,omitempty" validate:"gte=0,lte=100"`
	QuietWindow time.Duration `yaml:"quiet_window,omitempty" validate:"gte=0"`
}

// Catalog configures the GitHub search source and label classification
type Catalog struct {
	Query                string             `yaml:"query,omitempty"`
	Limit                int                `yaml:"limit,omitempty" validate:"gte=0,lte=1000"`
	DifficultyLabels     map[string]string  `yaml:"difficulty_labels,omitempty" validate:"dive,keys,required,endkeys,difficulty"`
	EffortLabels         map[string]float64 `yaml:"effort_labels,omitempty" validate:"dive,keys,required,endkeys,gt=0"`
	DefaultDifficulty    string             `yaml:"default_difficulty,omitempty" validate:"omitempty,difficulty"`
	DefaultEffortMinutes float64            `yaml:"default_effort_minutes,omitempty" validate:"gte=0"`
}

// Log selects the zerolog level and output format
type Log struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=console json"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields
func (c *Config) applyDefaults() {
	if c.Endpoint.BaseURL == "" {
		c.Endpoint.BaseURL = DefaultBaseURL
	}
	if c.Endpoint.Timeout == 0 {
		c.Endpoint.Timeout = api.DefaultTimeout
	}
	if c.Endpoint.TimeUnit == "" {
		c.Endpoint.TimeUnit = string(api.UnitMinutes)
	}
	if c.Feed.PageSize == 0 {
		c.Feed.PageSize = api.DefaultPageSize
	}
	if c.Feed.QuietWindow == 0 {
		c.Feed.QuietWindow = 500 * time.Millisecond
	}
	if c.Catalog.Limit == 0 {
		c.Catalog.Limit = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Load reads and parses a configuration file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromDirectory finds and loads the config file from the given directory.
// It searches up the directory tree until it finds a .gh-gfi.yml file or
// reaches the filesystem root.
func LoadFromDirectory(dir string) (*Config, error) {
	configPath, err := FindConfigFile(dir)
	if err != nil {
		return nil, err
	}
	return Load(configPath)
}

// LoadOrDefault behaves like LoadFromDirectory but returns Default() when no
// config file exists. The returned path is empty in that case.
func LoadOrDefault(dir string) (*Config, string, error) {
	configPath, err := FindConfigFile(dir)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, configPath, nil
}

// FindConfigFile searches for .gh-gfi.yml starting from dir and walking up
// the directory tree until found or filesystem root is reached.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", fmt.Errorf("%w: no %s in %s or any parent directory", ErrConfigNotFound, ConfigFileName, startDir)
		}
		dir = parent
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
// Supported environment variables:
//   - GH_GFI_ENDPOINT: overrides endpoint.base_url
//   - GH_GFI_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if endpoint := strings.TrimSpace(os.Getenv(EnvEndpoint)); endpoint != "" {
		c.Endpoint.BaseURL = endpoint
	}

	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// Save writes the configuration back to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EffortUnit returns the unit the endpoint expects for the max-time bound
func (c *Config) EffortUnit() api.EffortUnit {
	unit, err := api.ParseEffortUnit(c.Endpoint.TimeUnit)
	if err != nil {
		return api.UnitMinutes
	}
	return unit
}

// LabelRules builds the label classification for GitHub search results.
// Configured maps replace the built-in ones; keys are matched lower-case.
func (c *Config) LabelRules() api.LabelRules {
	rules := api.DefaultLabelRules()

	if len(c.Catalog.DifficultyLabels) > 0 {
		rules.Difficulty = make(map[string]string, len(c.Catalog.DifficultyLabels))
		for label, tier := range c.Catalog.DifficultyLabels {
			rules.Difficulty[strings.ToLower(strings.TrimSpace(label))] = strings.ToUpper(tier)
		}
	}
	if len(c.Catalog.EffortLabels) > 0 {
		rules.Effort = make(map[string]float64, len(c.Catalog.EffortLabels))
		for label, minutes := range c.Catalog.EffortLabels {
			rules.Effort[strings.ToLower(strings.TrimSpace(label))] = minutes
		}
	}
	if d, ok := api.ParseDifficulty(c.Catalog.DefaultDifficulty); ok {
		rules.DefaultDifficulty = d
	}
	if c.Catalog.DefaultEffortMinutes > 0 {
		rules.DefaultMinutes = c.Catalog.DefaultEffortMinutes
	}
	return rules
}
