package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is the configuration file looked up in the working directory
	DefaultFileName = "corkboard.yml"

	// DefaultRedisURL is used when redis.url is omitted
	DefaultRedisURL = "redis://localhost:6379"

	// DefaultInstance is used when instance is omitted
	DefaultInstance = "default"

	// DefaultSessionBuffer is the session event buffer size when session.buffer is omitted
	DefaultSessionBuffer = 64

	// MaxInstanceLength is the maximum length for an instance name
	MaxInstanceLength = 63
)

// InstancePattern matches valid instance names: lowercase alphanumeric,
// hyphens allowed but not at start/end. Instance names end up in Redis keys.
var InstancePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// CorkboardConfig represents the top-level corkboard.yml configuration
type CorkboardConfig struct {
	Version  string         `yaml:"version"`
	Instance string         `yaml:"instance,omitempty"`
	Redis    *RedisConfig   `yaml:"redis,omitempty"`
	History  *HistoryConfig `yaml:"history,omitempty"`
	Session  *SessionConfig `yaml:"session,omitempty"`
}

// RedisConfig specifies where boards are stored and events are relayed
type RedisConfig struct {
	URL string `yaml:"url"`
}

// HistoryConfig bounds the per-board history log
type HistoryConfig struct {
	MaxDepth *int `yaml:"max_depth,omitempty"` // Oldest entries beyond this are dropped (0 = unlimited, default = 0)
}

// SessionConfig tunes live board sessions
type SessionConfig struct {
	Buffer int `yaml:"buffer,omitempty"` // Applied-event notification buffer (default = 64)
}

// Validate performs strict validation on the configuration and fills in defaults
func (c *CorkboardConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Instance == "" {
		c.Instance = DefaultInstance
	}
	if err := ValidateInstance(c.Instance); err != nil {
		return err
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if _, err := redis.ParseURL(c.Redis.URL); err != nil {
		return fmt.Errorf("invalid redis.url: %w", err)
	}

	// Apply default history config if missing
	if c.History == nil {
		c.History = &HistoryConfig{}
	}
	if c.History.MaxDepth == nil {
		unlimited := 0
		c.History.MaxDepth = &unlimited
	}
	if *c.History.MaxDepth < 0 {
		return fmt.Errorf("history.max_depth must be >= 0 (0 = unlimited), got %d", *c.History.MaxDepth)
	}

	if c.Session == nil {
		c.Session = &SessionConfig{}
	}
	if c.Session.Buffer == 0 {
		c.Session.Buffer = DefaultSessionBuffer
	}
	if c.Session.Buffer < 0 {
		return fmt.Errorf("session.buffer must be >= 1, got %d", c.Session.Buffer)
	}

	return nil
}

// ValidateInstance checks an instance name against the naming rules.
func ValidateInstance(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if len(name) > MaxInstanceLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxInstanceLength)
	}

	if !InstancePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}

// RedisOptions returns go-redis connection options for the configured URL.
// The configuration must have been validated.
func (c *CorkboardConfig) RedisOptions() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return opts, nil
}

// Default returns a validated configuration with every default applied.
func Default() *CorkboardConfig {
	c := &CorkboardConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return c
}

// Load reads and validates corkboard.yml from the specified path
func Load(path string) (*CorkboardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config CorkboardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path if it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*CorkboardConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
