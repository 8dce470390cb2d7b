package conf

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/EvolutionAPI/evo-ai-console/internal/data"
)

// Config represents application configuration
type Config struct {
	// Evolution API location and credentials
	EvolutionURL string `envconfig:"EVOLUTION_API_URL"`
	EvolutionKey string `envconfig:"EVOLUTION_API_KEY"`

	// Agent directory location and credentials
	DirectoryURL string `envconfig:"DIRECTORY_API_URL"`
	DirectoryKey string `envconfig:"DIRECTORY_API_KEY"`

	// HTTP behavior
	TimeoutSeconds    int     `envconfig:"HTTP_TIMEOUT_SECONDS" default:"15"`
	RequestsPerSecond float64 `envconfig:"REQUESTS_PER_SECOND" default:"5"`

	// JSON API listen port
	Port int `envconfig:"PORT" default:"8080"`

	// Background session-list refresh cadence
	RefreshSeconds int `envconfig:"REFRESH_INTERVAL_SECONDS" default:"60"`

	// Identity database path; empty means ~/.evo-console/identity.db
	IdentityDBPath string `envconfig:"IDENTITY_DB_PATH"`

	// Debug mode
	Debug bool `envconfig:"DEBUG"`
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.IdentityDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.IdentityDBPath = filepath.Join(homeDir, ".evo-console", "identity.db")
	}
	return &cfg, nil
}

// HTTPTimeout is the per-request bound for both remote APIs.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefreshInterval is the background session-list reload cadence.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Evolution returns the Evolution API remote configuration.
func (c *Config) Evolution() data.RemoteConfig {
	return data.RemoteConfig{BaseURL: c.EvolutionURL, APIKey: c.EvolutionKey}
}

// Directory returns the agent directory remote configuration.
func (c *Config) Directory() data.RemoteConfig {
	return data.RemoteConfig{BaseURL: c.DirectoryURL, APIKey: c.DirectoryKey}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.EvolutionURL == "" {
		return &ConfigError{Field: "EVOLUTION_API_URL", Message: "required"}
	}
	if c.DirectoryURL == "" {
		return &ConfigError{Field: "DIRECTORY_API_URL", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
