package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-multifn/internal/log"
)

// Config holds all configuration for mfproc
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level" env:"MFPROC_LOG_LEVEL"`
	JSONLogs bool   `yaml:"json_logs" env:"MFPROC_JSON_LOGS"`
	Verbose  bool   `yaml:"verbose" env:"MFPROC_VERBOSE"`

	// Validation: stop at the first defect of each procedure
	FailFast bool `yaml:"fail_fast" env:"MFPROC_FAIL_FAST"`

	// Report cache keyed by description content
	CacheEnabled    bool   `yaml:"cache_enabled" env:"MFPROC_CACHE_ENABLED"`
	CachePath       string `yaml:"cache_path" env:"MFPROC_CACHE_PATH"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"MFPROC_CACHE_MAX_ENTRIES"`

	// Description discovery
	DescriptionExt string `yaml:"description_ext" env:"MFPROC_DESCRIPTION_EXT"`
	IgnoreFile     string `yaml:"ignore_file" env:"MFPROC_IGNORE_FILE"`

	// DOT export
	DotTrueColor  string `yaml:"dot_true_color" env:"MFPROC_DOT_TRUE_COLOR"`
	DotFalseColor string `yaml:"dot_false_color" env:"MFPROC_DOT_FALSE_COLOR"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		JSONLogs:        false,
		Verbose:         false,
		FailFast:        false,
		CacheEnabled:    true,
		CachePath:       defaultCachePath(),
		CacheMaxEntries: 1024,
		DescriptionExt:  ".proc.yaml",
		IgnoreFile:      ".mfprocignore",
		DotTrueColor:    "#118811",
		DotFalseColor:   "#881111",
	}
}

// defaultCachePath returns ~/.mfproc/cache/reports.msgpack
func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mfproc", "cache", "reports.msgpack")
	}
	return filepath.Join(home, ".mfproc", "cache", "reports.msgpack")
}

// GlobalConfigFilePath returns the global config file path (~/.mfproc/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mfproc", "config.yaml")
	}
	return filepath.Join(home, ".mfproc", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.mfproc/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".mfproc", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.mfproc/config.yaml)
// 3. Global config (~/.mfproc/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MFPROC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MFPROC_JSON_LOGS"); v != "" {
		cfg.JSONLogs = parseBool(v)
	}
	if v := os.Getenv("MFPROC_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("MFPROC_FAIL_FAST"); v != "" {
		cfg.FailFast = parseBool(v)
	}
	if v := os.Getenv("MFPROC_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("MFPROC_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("MFPROC_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("MFPROC_DESCRIPTION_EXT"); v != "" {
		cfg.DescriptionExt = v
	}
	if v := os.Getenv("MFPROC_IGNORE_FILE"); v != "" {
		cfg.IgnoreFile = v
	}
	if v := os.Getenv("MFPROC_DOT_TRUE_COLOR"); v != "" {
		cfg.DotTrueColor = v
	}
	if v := os.Getenv("MFPROC_DOT_FALSE_COLOR"); v != "" {
		cfg.DotFalseColor = v
	}
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{6}|[a-z]+[0-9]*)$`)

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.CacheEnabled {
		if c.CachePath == "" {
			return fmt.Errorf("cache_path is required when cache_enabled is true")
		}
		if c.CacheMaxEntries <= 0 {
			return fmt.Errorf("cache_max_entries must be positive")
		}
	}

	if !strings.HasPrefix(c.DescriptionExt, ".") {
		return fmt.Errorf("description_ext must start with a dot: %q", c.DescriptionExt)
	}

	for name, color := range map[string]string{"dot_true_color": c.DotTrueColor, "dot_false_color": c.DotFalseColor} {
		if !colorPattern.MatchString(color) {
			return fmt.Errorf("invalid %s: %q (must be #rrggbb or a color name)", name, color)
		}
	}

	return nil
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() log.Level {
	if c.Verbose {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// parseBool accepts the same truthy spellings for every boolean variable
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
