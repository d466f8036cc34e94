// Package cli provides the config command group for credentials and settings.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/config"
)

// newConfigCmd groups the credentials and settings subcommands.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage driveman configuration",
		Long: `Configuration management commands for driveman.

Commands:
  init   - Interactive credentials setup
  list   - Show all settings
  get    - Show one setting
  set    - Change a setting
  reset  - Restore default settings
  path   - Show configuration file locations`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigListCmd())
	configCmd.AddCommand(newConfigGetCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigResetCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd walks the user through credentials setup.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up credentials interactively",
		Long: `Interactive credentials setup for driveman.

The credentials file is INI format and holds the API endpoint, token and
proxy settings. The settings document is created on first use with defaults;
change it with 'driveman config set'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			credsPath, err := config.DefaultCredentialsPath()
			if err != nil {
				return fmt.Errorf("failed to locate credentials path: %w", err)
			}
			if settings, _, err := loadSettings(); err == nil && settings.CredentialsFile != "" {
				credsPath = settings.CredentialsFile
			}

			if !force {
				if _, err := os.Stat(credsPath); err == nil {
					fmt.Printf("Credentials already exist at: %s\n", credsPath)
					fmt.Println("Use --force to overwrite, or 'driveman config path' to inspect.")
					return nil
				}
			}

			fmt.Println("driveman credentials setup")
			fmt.Println("==========================")
			fmt.Println()

			reader := bufio.NewReader(os.Stdin)

			var token string
			for token == "" {
				token = promptLine(reader, "API token (required)", "")
				if token == "" {
					fmt.Println("  Error: API token is required")
				}
			}

			creds := config.NewCredentials()
			creds.APIToken = token
			creds.APIBaseURL = promptLine(reader, "API base URL", config.DefaultAPIBaseURL)

			answer := strings.ToLower(promptLine(reader, "Configure proxy? (y/N)", "n"))
			if answer == "y" || answer == "yes" {
				fmt.Println()
				creds.Proxy.Mode = promptLine(reader, "Proxy mode (no-proxy/system/basic/ntlm)", "system")

				switch creds.Proxy.Mode {
				case "basic", "ntlm":
					creds.Proxy.Host = promptLine(reader, "Proxy host", "")
					if v, err := strconv.Atoi(promptLine(reader, "Proxy port", "8080")); err == nil && v > 0 {
						creds.Proxy.Port = v
					}
					creds.Proxy.User = promptLine(reader, "Proxy user", "")
				}
			}

			if err := creds.Validate(); err != nil {
				return err
			}
			if err := config.SaveCredentials(creds, credsPath); err != nil {
				return err
			}

			fmt.Println()
			fmt.Printf("Credentials saved to: %s\n", credsPath)
			if creds.Proxy.Mode == "basic" || creds.Proxy.Mode == "ntlm" {
				fmt.Println("The proxy password is read from DRIVEMAN_PROXY_PASSWORD at run time; it is never written to disk.")
			}
			fmt.Println("Test the connection with: driveman status")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing credentials")

	return cmd
}

// newConfigListCmd prints every setting with its current value.
func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := loadSettings()
			if err != nil {
				return err
			}

			fmt.Printf("Settings file: %s\n\n", path)
			for _, key := range config.Keys() {
				value, _ := settings.Get(key)
				fmt.Printf("%-22s %s\n", key, value)
			}
			return nil
		},
	}
}

// newConfigGetCmd prints a single setting.
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings()
			if err != nil {
				return err
			}

			value, ok := settings.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %q (known keys: %s)",
					config.ErrUnknownSettingsKey, args[0], strings.Join(config.Keys(), ", "))
			}
			fmt.Println(value)
			return nil
		},
	}
}

// newConfigSetCmd updates one setting and saves the file.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := loadSettings()
			if err != nil {
				return err
			}

			if err := settings.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveSettings(settings, path); err != nil {
				return err
			}

			key := strings.ToLower(strings.TrimSpace(args[0]))
			value, _ := settings.Get(key)
			fmt.Printf("%s = %s\n", key, value)
			return nil
		},
	}
}

// newConfigResetCmd restores every recognized setting to its default.
func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Long:  "Restore every recognized setting to its default. Unrecognized rows in the settings file are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := loadSettings()
			if err != nil {
				return err
			}

			settings.Reset()
			if err := config.SaveSettings(settings, path); err != nil {
				return err
			}
			fmt.Printf("Settings reset to defaults: %s\n", path)
			return nil
		},
	}
}

// newConfigPathCmd prints where the settings and credentials files live.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, path, err := loadSettings()
			if err != nil {
				return err
			}

			fmt.Printf("Settings:    %s\n", path)
			fmt.Printf("Credentials: %s\n", settings.CredentialsFile)
			return nil
		},
	}
}
