package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultTimeoutSeconds = 30
	DefaultLogLevel       = "info"

	TokenStoreSQLite = "sqlite"
	TokenStoreFile   = "file"

	// EnvAPIURL overrides api_url from the config file.
	EnvAPIURL = "LEADRIDER_API_URL"
)

// DefaultLeadTemplate renders a lead for `leadrider leads export`.
const DefaultLeadTemplate = `# {{{first_name}}} {{{last_name}}}

- Email: {{{email}}}
- Phone: {{{phone}}}
- Status: {{status}}
- Source: {{{source}}}
- Budget: {{budget}}
- Property interest: {{{property_interest}}}
- Created: {{created}}

## Activities ({{activity_count}})
{{#activities}}

### {{icon}} {{{title}}} ({{activity_type}})
{{date}}{{#duration}} - {{duration}} min{{/duration}} - logged by {{{user_name}}}
{{#notes}}

{{{notes}}}
{{/notes}}
{{/activities}}
{{^activities}}

No activities yet.
{{/activities}}
`

type Config struct {
	Dir            string `toml:"-"`
	APIURL         string `toml:"api_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	TokenStore     string `toml:"token_store"`
	LogLevel       string `toml:"log_level"`
	LeadTemplate   string `toml:"-"`
}

// Timeout is the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DBPath is the SQLite database holding the token slot.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, "leadrider.db")
}

// TokenPath is the token file used when token_store = "file".
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, "token")
}

// LogPath is where logs go; the TUI owns the terminal.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, "leadrider.log")
}

// DefaultDir is ~/.config/leadrider.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".config", "leadrider"), nil
}

// Load reads config from dir (DefaultDir when empty). Missing files mean defaults.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg := &Config{
		Dir:            dir,
		APIURL:         DefaultAPIURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		TokenStore:     TokenStoreSQLite,
		LogLevel:       DefaultLogLevel,
		LeadTemplate:   DefaultLeadTemplate,
	}

	tomlPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "lead_template.mustache")); err == nil {
		cfg.LeadTemplate = string(data)
	}

	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that came from the file or environment.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an http(s) URL", c.APIURL)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	switch c.TokenStore {
	case TokenStoreSQLite, TokenStoreFile:
	default:
		return fmt.Errorf("token_store must be %q or %q, got %q", TokenStoreSQLite, TokenStoreFile, c.TokenStore)
	}
	return nil
}

// Write encodes the effective settings as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
