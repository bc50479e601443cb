package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the robovac bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains installation-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CloudConfig contains vendor cloud account settings.
//
// OpenUDID identifies this installation to the vendor cloud; it is sent
// with every request and embedded in the MQTT client identity. If left
// empty a random one is generated at load time (stable for the process
// lifetime only).
type CloudConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	OpenUDID string `yaml:"openudid"`

	// Timeout bounds each cloud REST request, in seconds.
	Timeout int `yaml:"timeout"`
}

// SessionConfig contains device session settings.
type SessionConfig struct {
	// ConnectTimeout bounds credential acquisition plus the broker
	// handshake for a single connection attempt, in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`

	// CredentialTTL is how long acquired broker credentials are trusted
	// after a disconnect, in seconds. A reconnect outage longer than this
	// forces a fresh credential fetch before redialling.
	CredentialTTL int `yaml:"credential_ttl"`

	// QoS is the MQTT quality-of-service level for subscribe and publish.
	QoS int `yaml:"qos"`
}

// TelemetryConfig contains InfluxDB state-history settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ROBOVAC_SECTION_KEY
// For example: ROBOVAC_CLOUD_EMAIL, ROBOVAC_TELEMETRY_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Generate an installation identity if none was configured
	if cfg.Cloud.OpenUDID == "" {
		cfg.Cloud.OpenUDID = uuid.NewString()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Robovac Bridge",
		},
		Cloud: CloudConfig{
			Timeout: 30,
		},
		Session: SessionConfig{
			ConnectTimeout: 30,
			CredentialTTL:  300,
			QoS:            1,
		},
		Telemetry: TelemetryConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ROBOVAC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud account (IMPORTANT: prefer env over file for credentials)
	if v := os.Getenv("ROBOVAC_CLOUD_EMAIL"); v != "" {
		cfg.Cloud.Email = v
	}
	if v := os.Getenv("ROBOVAC_CLOUD_PASSWORD"); v != "" {
		cfg.Cloud.Password = v
	}
	if v := os.Getenv("ROBOVAC_CLOUD_OPENUDID"); v != "" {
		cfg.Cloud.OpenUDID = v
	}

	// Telemetry
	if v := os.Getenv("ROBOVAC_TELEMETRY_URL"); v != "" {
		cfg.Telemetry.URL = v
	}
	if v := os.Getenv("ROBOVAC_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}

	// Logging
	if v := os.Getenv("ROBOVAC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Cloud account validation - credentials are REQUIRED.
	// Without them the bridge cannot authenticate, list devices, or
	// obtain broker credentials, so failing early is the only useful
	// behaviour.
	if c.Cloud.Email == "" {
		errs = append(errs, "cloud.email is required (set ROBOVAC_CLOUD_EMAIL environment variable)")
	}
	if c.Cloud.Password == "" {
		errs = append(errs, "cloud.password is required (set ROBOVAC_CLOUD_PASSWORD environment variable)")
	}
	if c.Cloud.Timeout <= 0 {
		errs = append(errs, "cloud.timeout must be positive")
	}

	// Session validation
	if c.Session.QoS < 0 || c.Session.QoS > 2 {
		errs = append(errs, "session.qos must be 0, 1, or 2")
	}
	if c.Session.ConnectTimeout <= 0 {
		errs = append(errs, "session.connect_timeout must be positive")
	}
	if c.Session.CredentialTTL <= 0 {
		errs = append(errs, "session.credential_ttl must be positive")
	}

	// Telemetry validation (only when enabled)
	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Token == "" {
			errs = append(errs, "telemetry.token is required when telemetry is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetCloudTimeout returns the cloud request timeout as a Duration.
func (c *Config) GetCloudTimeout() time.Duration {
	return time.Duration(c.Cloud.Timeout) * time.Second
}

// GetConnectTimeout returns the session connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Session.ConnectTimeout) * time.Second
}

// GetCredentialTTL returns the broker credential lifetime as a Duration.
func (c *Config) GetCredentialTTL() time.Duration {
	return time.Duration(c.Session.CredentialTTL) * time.Second
}
