package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configHeader is prepended to generated configuration files.
const configHeader = `# QuillFS Configuration File
#
# This file configures the QuillFS name server, storage servers, and the
# quillctl client. Any value can be overridden with a QUILLFS_* environment
# variable (e.g. QUILLFS_LOGGING_LEVEL=DEBUG) or a CLI flag.
#
# Generated by 'quillfs config init'.

`

// InitConfig creates a configuration file with default values at the default
// location ($XDG_CONFIG_HOME/quillfs/config.yaml).
//
// Returns the path of the configuration file. If the file already exists and
// force is false, an error is returned and the existing file is left
// untouched.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if err := InitConfigToPath(configPath, force); err != nil {
		return configPath, err
	}

	return configPath, nil
}

// InitConfigToPath creates a configuration file with default values at the
// given path, creating parent directories as needed.
//
// If the file already exists and force is false, an error is returned and
// the existing file is left untouched.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	content := append([]byte(configHeader), data...)

	// 0600: the admin section may hold a JWT secret.
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
