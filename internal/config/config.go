package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// SecretEnvVar prefills the client-secret field when set. The secret
// itself is never written to disk.
const SecretEnvVar = "FABRIC_CLIENT_SECRET"

type ExtractionConfig struct {
	WindowDays  int    `json:"window_days"`
	Destination string `json:"destination"`
}

type Config struct {
	TenantID      string           `json:"tenant_id"`
	ClientID      string           `json:"client_id"`
	Extraction    ExtractionConfig `json:"extraction"`
	LastWorkspace string           `json:"last_workspace"`
}

func DefaultConfig() Config {
	return Config{
		Extraction: ExtractionConfig{
			WindowDays: 14,
		},
	}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "fabricusage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fabricusage")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Extraction.WindowDays <= 0 {
		cfg.Extraction.WindowDays = 14
	}
	if cfg.Extraction.WindowDays > 90 {
		cfg.Extraction.WindowDays = 90
	}

	return cfg, nil
}

// ClientSecret returns the secret prefill from the environment, if any.
func ClientSecret() string {
	return os.Getenv(SecretEnvVar)
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveSession persists the reusable parts of a session (tenant/client id,
// destination, workspace name) so the next run starts prefilled
// (read-modify-write). The client secret is deliberately excluded.
func SaveSession(tenantID, clientID, destination, workspace string) error {
	return SaveSessionTo(ConfigPath(), tenantID, clientID, destination, workspace)
}

func SaveSessionTo(path, tenantID, clientID, destination, workspace string) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.TenantID = tenantID
	cfg.ClientID = clientID
	cfg.Extraction.Destination = destination
	cfg.LastWorkspace = workspace
	return SaveTo(path, cfg)
}
