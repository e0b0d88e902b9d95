// Package config provides configuration management with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for
// zero-downtime updates. Configuration can come from a YAML file, from
// environment variables, or both (the file wins where both are set).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete agent configuration.
type Config struct {
	Agent     AgentConfig      `yaml:"agent"`
	Providers []ProviderConfig `yaml:"providers"`
	Pool      PoolConfig       `yaml:"pool"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Tracing   TracingConfig    `yaml:"tracing"`
	State     StateConfig      `yaml:"state"`
	Schedule  ScheduleConfig   `yaml:"schedule"`
}

// AgentConfig contains identity and HTTP listener settings.
type AgentConfig struct {
	Name         string        `yaml:"name"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// ProviderConfig defines a single LLM provider configuration.
// Credentials lists every API key for the provider; an empty list
// disables the provider entirely.
type ProviderConfig struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	BaseURL     string            `yaml:"base_url"`
	Model       string            `yaml:"model"`
	Credentials []string          `yaml:"credentials"`
	Timeout     time.Duration     `yaml:"timeout"`
	Headers     map[string]string `yaml:"headers"`
}

// PoolConfig contains key rotation and cooldown settings.
type PoolConfig struct {
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	ServerErrCooldown time.Duration `yaml:"server_error_cooldown"`
	ExhaustionWait    time.Duration `yaml:"exhaustion_wait"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`     // OTLP endpoint (e.g., "localhost:4317")
	ServiceName string  `yaml:"service_name"` // Service name for traces
	SampleRate  float64 `yaml:"sample_rate"`  // Sampling rate (0.0 to 1.0)
	Insecure    bool    `yaml:"insecure"`     // Use insecure connection (no TLS)
}

// StateConfig selects where the agent persists its state between runs.
type StateConfig struct {
	Backend  string        `yaml:"backend"` // file, gist, redis
	Path     string        `yaml:"path"`    // file backend
	GistID   string        `yaml:"gist_id"` // gist backend
	GistPAT  string        `yaml:"gist_pat"`
	RedisURL string        `yaml:"redis_url"` // redis backend
	Interval time.Duration `yaml:"interval"`  // how often the daemon saves
}

// ScheduleConfig holds the cadence for each recurring task.
type ScheduleConfig struct {
	Marketing   time.Duration `yaml:"marketing"`
	Community   time.Duration `yaml:"community"`
	Submissions time.Duration `yaml:"submissions"`
	Library     time.Duration `yaml:"library"`
	Reflection  time.Duration `yaml:"reflection"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
}

// Environment variables consumed by FromEnv. Each *_API_KEYS variable
// holds a comma-separated list of credentials; empty or absent disables
// that provider.
const (
	EnvGeminiKeys  = "GEMINI_API_KEYS"
	EnvGroqKeys    = "GROQ_API_KEYS"
	EnvNvidiaKeys  = "NVIDIA_API_KEYS"
	EnvZhipuKeys   = "ZHIPU_API_KEYS"
	EnvLocalLLMURL = "LOCAL_LLM_URL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:         "openclaw",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Pool: PoolConfig{
			RateLimitCooldown: 5 * time.Minute,
			ServerErrCooldown: 30 * time.Second,
			ExhaustionWait:    60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "openclaw",
			SampleRate:  1.0,
			Insecure:    true,
		},
		State: StateConfig{
			Backend:  "file",
			Path:     "agent_state.json",
			Interval: 5 * time.Minute,
		},
		Schedule: ScheduleConfig{
			Marketing:   3 * time.Hour,
			Community:   6 * time.Hour,
			Submissions: 12 * time.Hour,
			Library:     24 * time.Hour,
			Reflection:  6 * time.Hour,
			Heartbeat:   time.Minute,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.pruneDisabledProviders()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a configuration from environment variables alone.
// Providers whose key list variable is empty or absent are left out.
func FromEnv() *Config {
	cfg := DefaultConfig()

	for _, p := range []struct {
		name   string
		envVar string
	}{
		{"gemini", EnvGeminiKeys},
		{"groq", EnvGroqKeys},
		{"nvidia", EnvNvidiaKeys},
		{"zhipu", EnvZhipuKeys},
	} {
		keys := SplitKeys(os.Getenv(p.envVar))
		if len(keys) == 0 {
			continue
		}
		cfg.Providers = append(cfg.Providers, ProviderConfig{
			Name:        p.name,
			Type:        p.name,
			Credentials: keys,
		})
	}

	if url := strings.TrimSpace(os.Getenv(EnvLocalLLMURL)); url != "" {
		cfg.Providers = append(cfg.Providers, ProviderConfig{
			Name:        "local",
			Type:        "local",
			BaseURL:     url,
			Credentials: []string{"local"},
		})
	}

	return cfg
}

// SplitKeys parses a comma-separated credential list, trimming
// whitespace and dropping empty entries.
func SplitKeys(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if k := strings.TrimSpace(part); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// pruneDisabledProviders drops providers whose credential list is empty
// after env expansion. A file may reference ${GROQ_API_KEYS} that is
// unset at runtime; that disables the provider rather than failing.
func (c *Config) pruneDisabledProviders() {
	kept := c.Providers[:0]
	for _, p := range c.Providers {
		var creds []string
		for _, cred := range p.Credentials {
			if strings.TrimSpace(cred) != "" {
				creds = append(creds, strings.TrimSpace(cred))
			}
		}
		if len(creds) == 0 {
			continue
		}
		p.Credentials = creds
		kept = append(kept, p)
	}
	c.Providers = kept
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Agent.Port <= 0 || c.Agent.Port > 65535 {
		return fmt.Errorf("invalid agent port: %d", c.Agent.Port)
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("provider[%d] %q: duplicate provider name", i, p.Name)
		}
		seen[p.Name] = true
		if p.Type == "" {
			return fmt.Errorf("provider[%d] %q: type is required", i, p.Name)
		}
	}

	if c.Pool.RateLimitCooldown <= 0 {
		return fmt.Errorf("pool: rate_limit_cooldown must be positive")
	}
	if c.Pool.ServerErrCooldown <= 0 {
		return fmt.Errorf("pool: server_error_cooldown must be positive")
	}
	if c.Pool.ExhaustionWait <= 0 {
		return fmt.Errorf("pool: exhaustion_wait must be positive")
	}

	switch c.State.Backend {
	case "", "file", "gist", "redis":
	default:
		return fmt.Errorf("state: unknown backend %q", c.State.Backend)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing: endpoint is required when enabled")
	}

	return nil
}
