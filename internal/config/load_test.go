package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "https://ps2.d2s.org"

[auth]
email = "grace@example.com"

[browse]
has_raster = true
workers = 8

[logging]
log_level = "debug"

[network]
timeout = "10s"
user_agent = "custom/1.0"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://ps2.d2s.org", cfg.Server.BaseURL)
	assert.Equal(t, "grace@example.com", cfg.Auth.Email)
	assert.True(t, cfg.Browse.HasRaster)
	assert.Equal(t, 8, cfg.Browse.Workers)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "10s", cfg.Network.Timeout)
	assert.Equal(t, "custom/1.0", cfg.Network.UserAgent)
}

func TestLoad_DefaultsFillMissingSections(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "http://localhost:8000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultWorkers, cfg.Browse.Workers)
	assert.Equal(t, defaultLogLevel, cfg.Logging.LogLevel)
	assert.Equal(t, defaultTimeout, cfg.Network.Timeout)
}

func TestLoad_UnknownKeySuggestion(t *testing.T) {
	path := writeConfig(t, `
[server]
base_urll = "https://ps2.d2s.org"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.base_urll")
	assert.Contains(t, err.Error(), `did you mean "server.base_url"`)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_OverrideChain(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "https://file.example.org"

[auth]
email = "file@example.com"
`)

	env := EnvOverrides{BaseURL: "https://env.example.org", Email: "env@example.com"}
	cli := CLIOverrides{ConfigPath: path, BaseURL: "https://cli.example.org"}

	resolved, err := Resolve(env, cli)
	require.NoError(t, err)

	// CLI beats env beats file.
	assert.Equal(t, "https://cli.example.org", resolved.BaseURL)
	assert.Equal(t, "env@example.com", resolved.Email)
	assert.Equal(t, 30*time.Second, resolved.Timeout)
}

func TestResolve_InvalidTimeout(t *testing.T) {
	path := writeConfig(t, `
[network]
timeout = "soon"
`)

	_, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestResolve_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"bad scheme",
			"[server]\nbase_url = \"ftp://ps2.d2s.org\"\n",
			"http or https",
		},
		{
			"zero workers",
			"[browse]\nworkers = 0\n",
			"workers",
		},
		{
			"bad log level",
			"[logging]\nlog_level = \"loud\"\n",
			"log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			_, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolve_EmptyBaseURLAllowed(t *testing.T) {
	// Base URL is enforced by API commands, not config validation, so the
	// zero-config first run works.
	resolved, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")})
	require.NoError(t, err)
	assert.Empty(t, resolved.BaseURL)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 1, levenshtein("abc", "abd"))
	assert.Equal(t, 3, levenshtein("", "abc"))
}
