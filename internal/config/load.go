package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// CLIOverrides holds values from CLI flags that override config file and
// environment settings.
type CLIOverrides struct {
	ConfigPath string // --config flag (empty = use default)
	BaseURL    string // --base-url flag (empty = not specified)
	Email      string // --email flag (empty = not specified)
}

// Resolved is the effective configuration after the full override chain,
// validated and ready for use.
type Resolved struct {
	BaseURL   string        `json:"base_url"`
	Email     string        `json:"email"`
	HasRaster bool          `json:"has_raster"`
	Workers   int           `json:"workers"`
	LogLevel  string        `json:"log_level"`
	Timeout   time.Duration `json:"timeout"`
	UserAgent string        `json:"user_agent"`
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal errors with "did you mean?"
// suggestions — silently ignoring a typo in a config file leads to
// hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values. This supports the zero-config
// first run: everything can come from flags and environment variables.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables -> CLI flags.
// CLI flags always win, matching user expectations for one-off overrides.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{
		BaseURL:   cfg.Server.BaseURL,
		Email:     cfg.Auth.Email,
		HasRaster: cfg.Browse.HasRaster,
		Workers:   cfg.Browse.Workers,
		LogLevel:  cfg.Logging.LogLevel,
		UserAgent: cfg.Network.UserAgent,
	}

	if env.BaseURL != "" {
		resolved.BaseURL = env.BaseURL
	}

	if env.Email != "" {
		resolved.Email = env.Email
	}

	if cli.BaseURL != "" {
		resolved.BaseURL = cli.BaseURL
	}

	if cli.Email != "" {
		resolved.Email = cli.Email
	}

	timeout, err := time.ParseDuration(cfg.Network.Timeout)
	if err != nil {
		return nil, fmt.Errorf("config: invalid network timeout %q: %w", cfg.Network.Timeout, err)
	}

	resolved.Timeout = timeout

	if err := validateResolved(resolved); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, nil
}
