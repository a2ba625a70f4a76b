// Package config handles YAML configuration loading, environment variable
// expansion, and the per-invocation parameter store.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"time"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Config is the top-level bot manager configuration.
type Config struct {
	// APIKey is the Telegram bot token.
	APIKey string `yaml:"api_key"`

	// BotUsername is the bot's @username, without the @.
	BotUsername string `yaml:"bot_username"`

	// Secret is the shared token that authenticates manager invocations.
	Secret string `yaml:"secret"`

	// APIURL overrides the Bot API endpoint, e.g. for a local Bot API server.
	APIURL string `yaml:"api_url"`

	// ValidateRequest disables the source-IP check when set to false.
	// Defaults to true.
	ValidateRequest *bool `yaml:"validate_request"`

	// ValidIPs are extra CIDR ranges allowed in addition to the fixed
	// Telegram ranges.
	ValidIPs []string `yaml:"valid_ips"`

	Webhook WebhookConfig `yaml:"webhook"`

	// Admins are chat IDs with administrative access.
	Admins []int64 `yaml:"admins"`

	Commands CommandsConfig `yaml:"commands"`
	Paths    PathsConfig    `yaml:"paths"`

	// CustomInput replaces an empty inbound-handle body, for testing a
	// deployment end to end.
	CustomInput string `yaml:"custom_input"`

	Limiter LimiterConfig `yaml:"limiter"`
	Storage StorageConfig `yaml:"storage"`
	Cron    CronConfig    `yaml:"cron"`
	Gateway GatewayConfig `yaml:"gateway"`

	// raw is the generic document view backing the parameter store.
	raw map[string]any
}

// WebhookConfig holds webhook registration parameters.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Certificate    string   `yaml:"certificate"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedUpdates []string `yaml:"allowed_updates"`
}

// CommandsConfig holds command discovery and per-command overrides.
type CommandsConfig struct {
	Paths   []string                  `yaml:"paths"`
	Configs map[string]map[string]any `yaml:"configs"`
}

// PathsConfig holds the file transfer directories.
type PathsConfig struct {
	Download string `yaml:"download"`
	Upload   string `yaml:"upload"`
}

// LimiterConfig throttles outgoing Bot API calls.
type LimiterConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// StorageConfig enables the persistent poll-cursor store.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CronConfig maps group names to command lists and optionally schedules
// groups for the built-in scheduler mode.
type CronConfig struct {
	Groups   map[string][]string `yaml:"groups"`
	Schedule []ScheduleEntry     `yaml:"schedule"`
}

// ScheduleEntry runs one cron dispatch on a cron expression.
type ScheduleEntry struct {
	Expr   string `yaml:"expr"`
	Groups string `yaml:"groups"`
}

// GatewayConfig holds HTTP gateway settings.
type GatewayConfig struct {
	Bind            string        `yaml:"bind"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "botman.db"
	}
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8080"
	}
	if c.Gateway.ReadTimeout <= 0 {
		c.Gateway.ReadTimeout = 10 * time.Second
	}
	if c.Gateway.WriteTimeout <= 0 {
		// Poll loops run inside a request in serve mode, so the write
		// timeout caps the loop duration there.
		c.Gateway.WriteTimeout = 60 * time.Second
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		c.Gateway.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks field constraints after defaults have been applied.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("config: api_key is required")
	}
	if !tokenPattern.MatchString(c.APIKey) {
		return errors.New("config: api_key format invalid (expected <bot_id>:<hash>)")
	}

	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: api_url must be a valid http/https URL, got %q", c.APIURL)
		}
	}

	if c.Webhook.URL != "" {
		u, err := url.Parse(c.Webhook.URL)
		if err != nil || u.Scheme != "https" {
			return fmt.Errorf("config: webhook.url must be a valid https URL, got %q", c.Webhook.URL)
		}
	}

	for _, cidr := range c.ValidIPs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("config: valid_ips entry %q is not a CIDR range: %w", cidr, err)
		}
	}

	if _, err := net.ResolveTCPAddr("tcp", c.Gateway.Bind); err != nil {
		return fmt.Errorf("config: invalid gateway bind address %q", c.Gateway.Bind)
	}

	for i, entry := range c.Cron.Schedule {
		if entry.Expr == "" {
			return fmt.Errorf("config: cron.schedule[%d] is missing expr", i)
		}
	}

	return nil
}

// RequestValidationEnabled reports whether the source-IP check is active.
func (c *Config) RequestValidationEnabled() bool {
	return c.ValidateRequest == nil || *c.ValidateRequest
}

// Params returns a parameter store backed by this configuration. Invocation
// values are layered on top with With.
func (c *Config) Params() *Params {
	return NewParams(c.raw)
}
