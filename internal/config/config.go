// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for d2s-go. It supports a three-layer
// override chain (defaults -> config file -> environment -> CLI flags).
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Browse  BrowseConfig  `toml:"browse"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}

// ServerConfig identifies the D2S instance to talk to.
type ServerConfig struct {
	BaseURL string `toml:"base_url"`
}

// AuthConfig carries login defaults. Passwords are never stored in the
// config file — they come from the environment or an interactive prompt.
type AuthConfig struct {
	Email string `toml:"email"`
}

// BrowseConfig controls hierarchy listing behavior.
type BrowseConfig struct {
	// HasRaster, when set, makes project and flight listings default to
	// the raster-only filter.
	HasRaster bool `toml:"has_raster"`
	// Workers bounds the parallel branch fetches of the tree command.
	Workers int `toml:"workers"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel string `toml:"log_level"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	Timeout   string `toml:"timeout"`
	UserAgent string `toml:"user_agent"`
}

// Default values applied before the config file is read.
const (
	defaultWorkers   = 4
	defaultLogLevel  = "info"
	defaultTimeout   = "30s"
	defaultUserAgent = "d2s-go/0.1"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Browse:  BrowseConfig{Workers: defaultWorkers},
		Logging: LoggingConfig{LogLevel: defaultLogLevel},
		Network: NetworkConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
	}
}
