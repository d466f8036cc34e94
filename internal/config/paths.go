// Package config provides the settings and credentials documents for driveman.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirectory returns the directory holding all driveman config files.
//
// Locations:
//   - Windows: %USERPROFILE%\.config\driveman
//   - Unix: ~/.config/driveman
func ConfigDirectory() (string, error) {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		return filepath.Join(userProfile, ".config", "driveman"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "driveman"), nil
}

// DefaultSettingsPath returns the default path of the settings document.
func DefaultSettingsPath() (string, error) {
	dir, err := ConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.csv"), nil
}

// DefaultCredentialsPath returns the default path of the credentials file.
func DefaultCredentialsPath() (string, error) {
	dir, err := ConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials"), nil
}

// DefaultDownloadDir returns the fallback download directory (~/Downloads,
// falling back to the working directory when no home is resolvable).
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
