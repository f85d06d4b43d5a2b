package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Extraction.WindowDays != 14 {
		t.Errorf("default window days = %d, want 14", cfg.Extraction.WindowDays)
	}
	if cfg.TenantID != "" || cfg.ClientID != "" {
		t.Error("defaults should not carry identity prefills")
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Extraction.WindowDays != 14 {
		t.Error("should return defaults for missing file")
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	content := `{
  "tenant_id": "tenant-1",
  "client_id": "client-1",
  "extraction": {"window_days": 7, "destination": "/tmp/metrics"},
  "last_workspace": "Finance"
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if cfg.TenantID != "tenant-1" {
		t.Errorf("tenant = %s, want tenant-1", cfg.TenantID)
	}
	if cfg.Extraction.WindowDays != 7 {
		t.Errorf("window days = %d, want 7", cfg.Extraction.WindowDays)
	}
	if cfg.Extraction.Destination != "/tmp/metrics" {
		t.Errorf("destination = %s", cfg.Extraction.Destination)
	}
	if cfg.LastWorkspace != "Finance" {
		t.Errorf("last workspace = %s", cfg.LastWorkspace)
	}
}

func TestLoadFrom_ClampsWindowDays(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	for _, tc := range []struct {
		raw  string
		want int
	}{
		{`{"extraction": {"window_days": 0}}`, 14},
		{`{"extraction": {"window_days": -3}}`, 14},
		{`{"extraction": {"window_days": 365}}`, 90},
	} {
		if err := os.WriteFile(path, []byte(tc.raw), 0o644); err != nil {
			t.Fatalf("writing test config: %v", err)
		}
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error: %v", err)
		}
		if cfg.Extraction.WindowDays != tc.want {
			t.Errorf("window days for %s = %d, want %d", tc.raw, cfg.Extraction.WindowDays, tc.want)
		}
	}
}

func TestSaveSessionTo_DoesNotPersistSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	if err := SaveSessionTo(path, "tenant-1", "client-1", "/data/out", "Ops"); err != nil {
		t.Fatalf("SaveSessionTo() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("saved config should never mention a secret")
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.TenantID != "tenant-1" || cfg.LastWorkspace != "Ops" {
		t.Errorf("round trip = %+v", cfg)
	}
}
