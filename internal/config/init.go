package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureConfigExists writes the commented template to configPath unless a
// file is already there. It reports whether a new file was created.
func EnsureConfigExists(configPath string) (bool, error) {
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configTemplate), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}
	return true, nil
}
