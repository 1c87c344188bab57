package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig   = "D2S_CONFIG"
	EnvBaseURL  = "D2S_BASE_URL"
	EnvEmail    = "D2S_EMAIL"
	EnvPassword = "D2S_PASSWORD"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // D2S_CONFIG: override config file path
	BaseURL    string // D2S_BASE_URL: override the D2S instance URL
	Email      string // D2S_EMAIL: login email
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. D2S_PASSWORD is deliberately not part of the config chain — the
// login command reads it directly so the password never lands in a resolved
// config struct.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		BaseURL:    os.Getenv(EnvBaseURL),
		Email:      os.Getenv(EnvEmail),
	}
}
