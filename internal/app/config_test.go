package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadParsesAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piqrypt.toml")
	body := "home = \"/tmp/pq\"\nhandshake_timeout_seconds = 3\nlog_level = \"debug\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Home != "/tmp/pq" {
		t.Fatalf("home = %q", cfg.Home)
	}
	if cfg.HandshakeTimeout() != 3*time.Second {
		t.Fatalf("timeout = %v", cfg.HandshakeTimeout())
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	// Absent fields keep their defaults.
	if cfg.NonceCapacity != Default().NonceCapacity {
		t.Fatalf("nonce capacity = %d", cfg.NonceCapacity)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piqrypt.toml")
	if err := os.WriteFile(path, []byte("nonce_capacity = -1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
