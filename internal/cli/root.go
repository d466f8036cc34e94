// Package cli provides the command-line interface for driveman.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/logging"
	"github.com/driveman/driveman/internal/version"
)

var (
	// Persistent flag values, bound in NewRootCmd.
	cfgFile    string
	apiToken   string
	apiBaseURL string
	verbose    bool
	debug      bool

	// logger is ready at package load; PersistentPreRun only adjusts the
	// level, so helpers may log before cobra has run anything.
	logger = logging.NewDefaultCLILogger()

	// Installed by Execute, cancelled on SIGINT/SIGTERM.
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "driveman",
		Short: "driveman - file manager for Drive-style cloud storage",
		Long: `driveman ` + version.Version + ` - Built: ` + version.BuildTime + `
Command-line file manager for a Drive-style cloud storage API.

Browse, upload, download and organize remote files. Batch operations run
sequentially with live progress and can be cancelled with Ctrl+C; the item
in flight finishes, the rest are skipped.

Getting started:
  driveman config init     set up credentials
  driveman status          verify the connection
  driveman ls              list the root folder`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Settings file path (default ~/.config/driveman/settings.csv)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "API token (overrides credentials file and environment)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "API base URL (overrides credentials file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug-level messages")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Alias for --verbose")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	addCompletionCmd(rootCmd)

	return rootCmd
}

// addCompletionCmd replaces cobra's stock completion command with one whose
// help spells out the install path per shell.
func addCompletionCmd(rootCmd *cobra.Command) {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for driveman.

Quick setup:

  bash:
    driveman completion bash | sudo tee /etc/bash_completion.d/driveman

  zsh:
    driveman completion zsh > "${fpath[1]}/_driveman"

  fish:
    driveman completion fish > ~/.config/fish/completions/driveman.fish

  powershell:
    driveman completion powershell >> $PROFILE

Restart your shell afterwards.`,
	}

	shells := []struct {
		name string
		gen  func(root *cobra.Command, w io.Writer) error
	}{
		{"bash", func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletion(w) }},
		{"zsh", func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) }},
		{"fish", func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) }},
		{"powershell", func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletion(w) }},
	}
	for _, sh := range shells {
		completionCmd.AddCommand(&cobra.Command{
			Use:   sh.name,
			Short: "Completion script for " + sh.name,
			RunE: func(cmd *cobra.Command, args []string) error {
				return sh.gen(cmd.Root(), cmd.OutOrStdout())
			},
		})
	}

	rootCmd.AddCommand(completionCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Execute runs the CLI.
func Execute() error {
	// Cancelled on SIGINT/SIGTERM. Batch runners translate this into
	// cooperative cancellation: the item in flight finishes, the rest skip.
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	// Closing the channel ends the loop; repeated Ctrl+C presses just
	// re-cancel the same context.
	go func() {
		for sig := range sigChan {
			fmt.Fprintf(os.Stderr, "\nReceived %v, cancelling... the current item will finish first.\n", sig)
			cancelFunc()
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	return rootCmd.Execute()
}

// AddCommands registers every driveman subcommand on the root.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newMvCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetContext returns the signal-aware context shared by all commands; it is
// cancelled on the first Ctrl+C. Before Execute installs it, callers get a
// plain Background context.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
