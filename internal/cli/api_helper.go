// Package cli provides API client helper functions.
package cli

import (
	"fmt"

	"github.com/driveman/driveman/internal/api"
	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/services"
)

// loadSettings loads the settings document, honoring --config.
func loadSettings() (*config.Settings, string, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultSettingsPath()
		if err != nil {
			return nil, "", fmt.Errorf("failed to locate settings: %w", err)
		}
	}

	cfg, err := config.LoadSettings(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load settings: %w", err)
	}
	return cfg, path, nil
}

// loadCredentials loads the credentials file named by the settings document,
// then applies the --token and --api-url flag overrides.
func loadCredentials() (*config.Credentials, error) {
	settings, _, err := loadSettings()
	if err != nil {
		return nil, err
	}

	creds, err := config.LoadCredentials(settings.CredentialsFile)
	if err != nil {
		return nil, err
	}

	if apiToken != "" {
		creds.APIToken = apiToken
	}
	if apiBaseURL != "" {
		creds.APIBaseURL = apiBaseURL
	}

	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%w\nRun 'driveman config init' to set up credentials", err)
	}
	return creds, nil
}

// getStorage is the standard way for commands to reach the remote side:
// settings -> credentials -> API client -> DriveStorage.
func getStorage() (*services.DriveStorage, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return services.NewDriveStorage(client), nil
}
