package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
agent:
  name: testagent
  port: 9090
providers:
  - name: groq
    type: groq
    credentials: ["k1", "k2"]
  - name: gemini
    type: gemini
    credentials: ["g1"]
pool:
  rate_limit_cooldown: 2m
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Agent.Name != "testagent" {
		t.Errorf("Agent.Name = %q, want testagent", cfg.Agent.Name)
	}
	if cfg.Agent.Port != 9090 {
		t.Errorf("Agent.Port = %d, want 9090", cfg.Agent.Port)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("len(Providers) = %d, want 2", len(cfg.Providers))
	}
	if got := cfg.Providers[0].Credentials; len(got) != 2 || got[0] != "k1" {
		t.Errorf("groq credentials = %v, want [k1 k2]", got)
	}
	if cfg.Pool.RateLimitCooldown != 2*time.Minute {
		t.Errorf("RateLimitCooldown = %v, want 2m", cfg.Pool.RateLimitCooldown)
	}
	// untouched sections keep defaults
	if cfg.Pool.ServerErrCooldown != 30*time.Second {
		t.Errorf("ServerErrCooldown = %v, want default 30s", cfg.Pool.ServerErrCooldown)
	}
	if cfg.Pool.ExhaustionWait != 60*time.Second {
		t.Errorf("ExhaustionWait = %v, want default 60s", cfg.Pool.ExhaustionWait)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "sk-expanded")
	path := writeConfig(t, `
providers:
  - name: groq
    type: groq
    credentials: ["${TEST_GROQ_KEY}"]
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if got := cfg.Providers[0].Credentials[0]; got != "sk-expanded" {
		t.Errorf("credential = %q, want expanded env value", got)
	}
}

func TestLoadFromFile_UnsetEnvDisablesProvider(t *testing.T) {
	t.Setenv("TEST_UNSET_KEYS", "")
	path := writeConfig(t, `
providers:
  - name: groq
    type: groq
    credentials: ["${TEST_UNSET_KEYS}"]
  - name: gemini
    type: gemini
    credentials: ["g1"]
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Name != "gemini" {
		t.Errorf("Providers = %+v, want only gemini (groq disabled)", cfg.Providers)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() error = nil, want error for missing file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvGeminiKeys, "g1, g2 ,g3")
	t.Setenv(EnvGroqKeys, "")
	t.Setenv(EnvNvidiaKeys, "n1")
	t.Setenv(EnvZhipuKeys, "")
	t.Setenv(EnvLocalLLMURL, "http://127.0.0.1:8080/v1")

	cfg := FromEnv()

	want := map[string]int{"gemini": 3, "nvidia": 1, "local": 1}
	if len(cfg.Providers) != len(want) {
		t.Fatalf("len(Providers) = %d, want %d: %+v", len(cfg.Providers), len(want), cfg.Providers)
	}
	for _, p := range cfg.Providers {
		n, ok := want[p.Name]
		if !ok {
			t.Errorf("unexpected provider %q", p.Name)
			continue
		}
		if len(p.Credentials) != n {
			t.Errorf("provider %q has %d credentials, want %d", p.Name, len(p.Credentials), n)
		}
	}
}

func TestSplitKeys(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"single", "k1", 1},
		{"multiple", "k1,k2,k3", 3},
		{"trims and drops empties", " k1 , , k2 ,", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitKeys(tt.raw); len(got) != tt.want {
				t.Errorf("SplitKeys(%q) = %v, want %d keys", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Agent.Port = 0 }, true},
		{"provider without name", func(c *Config) {
			c.Providers = []ProviderConfig{{Type: "groq", Credentials: []string{"k"}}}
		}, true},
		{"provider without type", func(c *Config) {
			c.Providers = []ProviderConfig{{Name: "groq", Credentials: []string{"k"}}}
		}, true},
		{"duplicate provider", func(c *Config) {
			c.Providers = []ProviderConfig{
				{Name: "groq", Type: "groq", Credentials: []string{"a"}},
				{Name: "groq", Type: "groq", Credentials: []string{"b"}},
			}
		}, true},
		{"zero cooldown", func(c *Config) { c.Pool.RateLimitCooldown = 0 }, true},
		{"unknown state backend", func(c *Config) { c.State.Backend = "s3" }, true},
		{"tracing enabled without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Endpoint = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
