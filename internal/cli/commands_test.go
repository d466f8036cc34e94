package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestLsCommand tests the ls command
func TestLsCommand(t *testing.T) {
	cmd := newLsCmd()
	if cmd == nil {
		t.Fatal("newLsCmd() returned nil")
	}

	if got, want := cmd.Use, "ls [folder-id]"; got != want {
		t.Errorf("Use = %q, want %q", got, want)
	}

	if cmd.RunE == nil {
		t.Error("RunE is nil")
	}

	for _, flag := range []string{"include", "exclude", "search"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

// TestUploadCommand tests the upload command
func TestUploadCommand(t *testing.T) {
	cmd := newUploadCmd()
	if cmd == nil {
		t.Fatal("newUploadCmd() returned nil")
	}

	if got, want := cmd.Use, "upload <paths...>"; got != want {
		t.Errorf("Use = %q, want %q", got, want)
	}

	if cmd.RunE == nil {
		t.Error("RunE is nil")
	}

	dest := cmd.Flags().Lookup("dest")
	if dest == nil {
		t.Error("missing --dest flag")
	} else if dest.Shorthand != "d" {
		t.Errorf("--dest shorthand = %q, want %q", dest.Shorthand, "d")
	}

	recursive := cmd.Flags().Lookup("recursive")
	if recursive == nil {
		t.Error("missing --recursive flag")
	} else if recursive.Shorthand != "r" {
		t.Errorf("--recursive shorthand = %q, want %q", recursive.Shorthand, "r")
	}
}

// TestDownloadCommand tests the download command
func TestDownloadCommand(t *testing.T) {
	cmd := newDownloadCmd()
	if cmd == nil {
		t.Fatal("newDownloadCmd() returned nil")
	}

	if got, want := cmd.Use, "download <ids...>"; got != want {
		t.Errorf("Use = %q, want %q", got, want)
	}

	if cmd.RunE == nil {
		t.Error("RunE is nil")
	}

	if cmd.Flags().Lookup("outdir") == nil {
		t.Error("missing --outdir flag")
	}
}

// TestRmCommand tests the rm command
func TestRmCommand(t *testing.T) {
	cmd := newRmCmd()
	if cmd == nil {
		t.Fatal("newRmCmd() returned nil")
	}

	if got, want := cmd.Use, "rm <ids...>"; got != want {
		t.Errorf("Use = %q, want %q", got, want)
	}

	force := cmd.Flags().Lookup("force")
	if force == nil {
		t.Error("missing --force flag")
	} else if force.Shorthand != "f" {
		t.Errorf("--force shorthand = %q, want %q", force.Shorthand, "f")
	}
}

// TestMkdirCommand tests the mkdir command
func TestMkdirCommand(t *testing.T) {
	cmd := newMkdirCmd()
	if cmd == nil {
		t.Fatal("newMkdirCmd() returned nil")
	}

	if got, want := cmd.Use, "mkdir <name>"; got != want {
		t.Errorf("Use = %q, want %q", got, want)
	}

	if cmd.Flags().Lookup("parent") == nil {
		t.Error("missing --parent flag")
	}
}

// TestConfigCommandGroup tests that config carries its subcommands
func TestConfigCommandGroup(t *testing.T) {
	cmd := newConfigCmd()
	if cmd == nil {
		t.Fatal("newConfigCmd() returned nil")
	}

	have := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		have[sub.Name()] = true
	}

	for _, name := range []string{"init", "list", "get", "set", "reset", "path"} {
		if !have[name] {
			t.Errorf("config is missing subcommand %q", name)
		}
	}
}

// TestAllCommands tests that every command constructor produces a usable command
func TestAllCommands(t *testing.T) {
	commands := []struct {
		name  string
		build func() *cobra.Command
	}{
		{"ls", newLsCmd},
		{"upload", newUploadCmd},
		{"download", newDownloadCmd},
		{"mkdir", newMkdirCmd},
		{"rm", newRmCmd},
		{"mv", newMvCmd},
		{"info", newInfoCmd},
		{"status", newStatusCmd},
		{"browse", newBrowseCmd},
	}

	for _, tc := range commands {
		t.Run(tc.name, func(t *testing.T) {
			cmd := tc.build()
			if cmd == nil {
				t.Fatalf("%s constructor returned nil", tc.name)
			}

			if cmd.RunE == nil {
				t.Errorf("%s has no RunE", tc.name)
			}

			if cmd.Short == "" {
				t.Errorf("%s has an empty Short description", tc.name)
			}
		})
	}
}

// TestAddCommands tests that AddCommands adds the full surface to root
func TestAddCommands(t *testing.T) {
	rootCmd := NewRootCmd()
	AddCommands(rootCmd)

	have := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		have[cmd.Name()] = true
	}

	for _, name := range []string{"ls", "upload", "download", "mkdir", "rm", "mv", "info", "status", "browse", "config"} {
		if !have[name] {
			t.Errorf("%s missing from the root command", name)
		}
	}
}
