package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

nameserver:
  root: "` + yamlSafePath(tmpDir) + `/storage"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.NameServer.Port != 8080 {
		t.Errorf("Expected name server port 8080, got %d", cfg.NameServer.Port)
	}
	if cfg.Storage.BasePort != 8081 {
		t.Errorf("Expected storage base port 8081, got %d", cfg.Storage.BasePort)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows users to run the servers without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	// Verify default config is returned
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}

	// Verify default name server port
	if cfg.NameServer.Port != 8080 {
		t.Errorf("Expected default name server port 8080, got %d", cfg.NameServer.Port)
	}
	if cfg.NameServer.Root != "storage" {
		t.Errorf("Expected default root 'storage', got %q", cfg.NameServer.Root)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	// Write invalid YAML
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Should return error
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "WARN"
format = "json"

[nameserver]
port = 8080
root = "` + yamlSafePath(tmpDir) + `/storage"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
}

func TestLoad_DurationStrings(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
shutdown_timeout: "45s"

nameserver:
  root: "storage"
  probe_timeout: "500ms"
  fanout_timeout: "2s"

client:
  dial_timeout: "10s"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ShutdownTimeout != 45*time.Second {
		t.Errorf("Expected shutdown_timeout 45s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.NameServer.ProbeTimeout != 500*time.Millisecond {
		t.Errorf("Expected probe_timeout 500ms, got %v", cfg.NameServer.ProbeTimeout)
	}
	if cfg.NameServer.FanoutTimeout != 2*time.Second {
		t.Errorf("Expected fanout_timeout 2s, got %v", cfg.NameServer.FanoutTimeout)
	}
	if cfg.Client.DialTimeout != 10*time.Second {
		t.Errorf("Expected dial_timeout 10s, got %v", cfg.Client.DialTimeout)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	// Verify all defaults are set
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.NameServer.Port != 8080 {
		t.Errorf("Expected default name server port 8080, got %d", cfg.NameServer.Port)
	}
	if cfg.NameServer.MaxServers != 32 {
		t.Errorf("Expected default max servers 32, got %d", cfg.NameServer.MaxServers)
	}
	if cfg.Storage.NameServer != "127.0.0.1:8080" {
		t.Errorf("Expected default storage nameserver '127.0.0.1:8080', got %q", cfg.Storage.NameServer)
	}
	if cfg.Admin.Port != 9090 {
		t.Errorf("Expected default admin port 9090, got %d", cfg.Admin.Port)
	}
	if cfg.Admin.Enabled {
		t.Error("Expected admin API to be disabled by default")
	}
	if cfg.NameServer.ExecEnabled {
		t.Error("Expected EXEC to be disabled by default")
	}
}

func TestSaveConfig_Roundtrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.NameServer.Port = 8181

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	// Config files can hold the admin JWT secret, so they must not be
	// world-readable.
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat saved config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected file mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG' after roundtrip, got %q", loaded.Logging.Level)
	}
	if loaded.NameServer.Port != 8181 {
		t.Errorf("Expected port 8181 after roundtrip, got %d", loaded.NameServer.Port)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "quillfs" {
		t.Errorf("Expected directory name 'quillfs', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// Set environment variables
	_ = os.Setenv("QUILLFS_LOGGING_LEVEL", "ERROR")
	_ = os.Setenv("QUILLFS_NAMESERVER_PORT", "9191")
	defer func() {
		_ = os.Unsetenv("QUILLFS_LOGGING_LEVEL")
		_ = os.Unsetenv("QUILLFS_NAMESERVER_PORT")
	}()

	// Create minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

nameserver:
  port: 8080
  root: "` + yamlSafePath(tmpDir) + `/storage"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify environment variables override config file
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.NameServer.Port != 9191 {
		t.Errorf("Expected port 9191 from env var, got %d", cfg.NameServer.Port)
	}
}
