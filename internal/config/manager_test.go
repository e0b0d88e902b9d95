package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManager_GetAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	initial := `
agent:
  name: before
providers:
  - name: groq
    type: groq
    credentials: ["k1"]
`
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m, err := NewManager(path, slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = m.Close() }()

	if got := m.Get().Agent.Name; got != "before" {
		t.Fatalf("Agent.Name = %q, want before", got)
	}

	changed := make(chan *Config, 1)
	m.OnChange(func(c *Config) { changed <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	updated := `
agent:
  name: after
providers:
  - name: groq
    type: groq
    credentials: ["k1", "k2"]
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Agent.Name != "after" {
			t.Errorf("reloaded Agent.Name = %q, want after", cfg.Agent.Name)
		}
		if len(cfg.Providers[0].Credentials) != 2 {
			t.Errorf("reloaded credentials = %v, want 2 keys", cfg.Providers[0].Credentials)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	if got := m.Get().Agent.Name; got != "after" {
		t.Errorf("Get() after reload = %q, want after", got)
	}
}

func TestManager_ReloadKeepsCurrentOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  name: stable\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m, err := NewManager(path, slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer func() { _ = m.Close() }()

	if err := os.WriteFile(path, []byte("agent:\n  name: [unclosed"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	m.reload()

	if got := m.Get().Agent.Name; got != "stable" {
		t.Errorf("Agent.Name after bad reload = %q, want stable", got)
	}
}
