// Package config resolves console settings from defaults, the YAML config
// file, environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAPIURL  = "http://localhost:8080"
	DefaultLanding = "dashboard"
	DefaultTimeout = 30 * time.Second
	DefaultLevel   = "info"

	FileName    = "config.yaml"
	LogFileName = "opsdesk.log"
)

// Environment variables.
const (
	EnvAPIURL   = "OPSDESK_API_URL"
	EnvStateDir = "OPSDESK_STATE_DIR"
	EnvLogLevel = "OPSDESK_LOG_LEVEL"
)

// Config is the resolved console configuration.
type Config struct {
	APIURL    string        `yaml:"api_url"`
	Landing   string        `yaml:"landing"`
	Timeout   time.Duration `yaml:"timeout"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`

	// StateDir holds the session record, the log file and by default this
	// config file. It cannot itself be set from the file.
	StateDir string `yaml:"-"`
	// Path is the config file that was read, empty if none.
	Path string `yaml:"-"`
}

// Overrides carries flag values. Empty fields are ignored.
type Overrides struct {
	ConfigPath string
	APIURL     string
	StateDir   string
	LogLevel   string
}

// Default returns the built-in configuration rooted at stateDir.
func Default(stateDir string) *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		Landing:   DefaultLanding,
		Timeout:   DefaultTimeout,
		LogLevel:  DefaultLevel,
		LogFormat: "text",
		StateDir:  stateDir,
	}
}

// DefaultStateDir is ~/.opsdesk.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config.DefaultStateDir: %w", err)
	}
	return filepath.Join(home, ".opsdesk"), nil
}

// Load resolves the configuration. A missing file at the default location
// is fine; a missing file named explicitly is an error.
func Load(o Overrides) (*Config, error) {
	stateDir := firstNonEmpty(o.StateDir, os.Getenv(EnvStateDir))
	if stateDir == "" {
		var err error
		if stateDir, err = DefaultStateDir(); err != nil {
			return nil, err
		}
	}
	cfg := Default(stateDir)

	path := o.ConfigPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(stateDir, FileName)
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	cfg.APIURL = firstNonEmpty(o.APIURL, os.Getenv(EnvAPIURL), cfg.APIURL)
	cfg.LogLevel = firstNonEmpty(o.LogLevel, os.Getenv(EnvLogLevel), cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Expand environment variables in the config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q: must be an http(s) URL", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Landing == "" {
		c.Landing = DefaultLanding
	}
	return nil
}

// LogPath is where the console writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.StateDir, LogFileName)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
