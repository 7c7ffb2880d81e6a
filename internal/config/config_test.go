package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIURL, EnvStateDir, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(Overrides{StateDir: dir})
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultLanding, cfg.Landing)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, dir, cfg.StateDir)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, filepath.Join(dir, "opsdesk.log"), cfg.LogPath())
}

func TestLoadFileEnvFlagPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("OPSDESK_TEST_HOST", "api.internal")
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
api_url: https://${OPSDESK_TEST_HOST}
landing: inventory
timeout: 5s
log_level: warn
`), 0o600))

	cfg, err := Load(Overrides{StateDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "https://api.internal", cfg.APIURL)
	assert.Equal(t, "inventory", cfg.Landing)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvAPIURL, "https://env.example")
	cfg, err = Load(Overrides{StateDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://env.example", cfg.APIURL)

	cfg, err = Load(Overrides{StateDir: dir, APIURL: "http://flag.example:9000"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example:9000", cfg.APIURL)
}

func TestLoadStateDirFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvStateDir, dir)

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.StateDir)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(Overrides{StateDir: t.TempDir(), ConfigPath: "/does/not/exist.yaml"})
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		file string
	}{
		{"bad yaml", "api_url: [unterminated"},
		{"bad scheme", "api_url: ftp://files.example"},
		{"no host", "api_url: http://"},
		{"negative timeout", "timeout: -1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "custom.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
			_, err := Load(Overrides{StateDir: dir, ConfigPath: path})
			assert.Error(t, err)
		})
	}
}
