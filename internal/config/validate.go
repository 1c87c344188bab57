package config

import (
	"fmt"
	"net/url"
)

// validLogLevels are the accepted log_level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validateResolved checks the effective configuration. The base URL is
// allowed to be empty here — commands that talk to the API enforce its
// presence with a friendlier message.
func validateResolved(r *Resolved) error {
	if r.BaseURL != "" {
		u, err := url.Parse(r.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url %q is not a valid URL: %w", r.BaseURL, err)
		}

		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url %q must use http or https", r.BaseURL)
		}

		if u.Hostname() == "" {
			return fmt.Errorf("base_url %q has no host", r.BaseURL)
		}
	}

	if r.Workers < 1 {
		return fmt.Errorf("browse workers must be at least 1, got %d", r.Workers)
	}

	if !validLogLevels[r.LogLevel] {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", r.LogLevel)
	}

	if r.Timeout <= 0 {
		return fmt.Errorf("network timeout must be positive, got %s", r.Timeout)
	}

	return nil
}
