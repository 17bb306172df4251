package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "release" || cfg.Port != 8080 {
		t.Errorf("defaults = mode %q port %d", cfg.Mode, cfg.Port)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Errorf("PingPeriod = %v, want 54s", cfg.PingPeriod)
	}
	if len(cfg.STUNServers) == 0 {
		t.Error("no default STUN servers")
	}
	if cfg.Assist.Model != "deepseek/deepseek-chat" {
		t.Errorf("Assist.Model = %q", cfg.Assist.Model)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`mode: debug
port: 9999
store:
  url: http://localhost:54321
  bucket: group-files
`)
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != "debug" || cfg.Port != 9999 {
		t.Errorf("loaded mode %q port %d", cfg.Mode, cfg.Port)
	}
	if cfg.Store.URL != "http://localhost:54321" || cfg.Store.Bucket != "group-files" {
		t.Errorf("store config = %+v", cfg.Store)
	}
}

func TestSecretsComeFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "dev")
	t.Setenv("BRAINWAVE_SECRET", "cookie-secret")
	t.Setenv("BRAINWAVE_STORE_KEY", "anon-key")
	t.Setenv("BRAINWAVE_ASSIST_KEY", "assist-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Secret != "cookie-secret" {
		t.Errorf("Secret = %q", cfg.Secret)
	}
	if cfg.Store.AnonKey != "anon-key" {
		t.Errorf("Store.AnonKey = %q", cfg.Store.AnonKey)
	}
	if cfg.Assist.APIKey != "assist-key" {
		t.Errorf("Assist.APIKey = %q", cfg.Assist.APIKey)
	}
}
