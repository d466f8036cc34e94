package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/api"
	"github.com/driveman/driveman/internal/diskspace"
	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/http"
	"github.com/driveman/driveman/internal/models"
	"github.com/driveman/driveman/internal/ops"
	"github.com/driveman/driveman/internal/services"
	"github.com/driveman/driveman/internal/util/format"
	"github.com/driveman/driveman/internal/util/paths"
)

// newMkdirCmd creates a remote folder.
func newMkdirCmd() *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := getStorage()
			if err != nil {
				return err
			}

			id, err := storage.CreateFolder(GetContext(), args[0], parentID)
			if api.IsAlreadyExistsError(err) {
				return fmt.Errorf("a folder named %q already exists there", strings.TrimSpace(args[0]))
			}
			if err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}
			fmt.Printf("Created folder %q (%s)\n", strings.TrimSpace(args[0]), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&parentID, "parent", "d", "", "Parent folder ID (default: root)")

	return cmd
}

// newRmCmd deletes entries by ID as a batch.
func newRmCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <ids...>",
		Short: "Delete files or folders",
		Long: `Delete entries by ID. Asks for confirmation unless --force is given or the
confirm_operations setting is off. Items are deleted independently; one
failure does not stop the rest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(dedupe(args), force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func runDelete(ids []string, force bool) error {
	storage, err := getStorage()
	if err != nil {
		return err
	}
	settings, _, err := loadSettings()
	if err != nil {
		return err
	}

	if !force && settings.ConfirmOperations {
		if !confirmDeletion(len(ids)) {
			fmt.Println("Deletion cancelled")
			return nil
		}
	}

	items := make([]ops.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, ops.Item{ID: id, Name: id})
	}

	bus := events.NewEventBus(0)
	op := ops.NewOperation(ops.KindDelete, batchName(items, "items"), len(items), bus)

	runner := ops.NewRunner(op, "Deleting", items, func(ctx context.Context, item ops.Item) error {
		return storage.Delete(ctx, item.ID)
	})

	res := runBatch(GetContext(), bus, op, runner, os.Stderr, false)

	if line := summaryLine(res, "deleted", "item"); line != "" {
		fmt.Println(line)
	}
	notifyResult(newNotifier(settings), res, ops.KindDelete, "")
	return batchError(res, "deletion")
}

// newMvCmd moves an entry into another folder.
func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <dest-folder-id>",
		Short: "Move an entry to another folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := getStorage()
			if err != nil {
				return err
			}

			if err := storage.Move(GetContext(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to move %s: %w", args[0], err)
			}
			fmt.Printf("Moved %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

// newInfoCmd shows one entry's details.
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show entry details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := getStorage()
			if err != nil {
				return err
			}

			entry, err := storage.GetInfo(GetContext(), args[0])
			if api.IsNotFoundError(err) {
				return fmt.Errorf("no entry with id %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", args[0], err)
			}
			printEntryDetails(entry)
			return nil
		},
	}
}

func printEntryDetails(e models.Entry) {
	fmt.Printf("ID:        %s\n", e.ID)
	fmt.Printf("Name:      %s\n", e.Title)
	fmt.Printf("Type:      %s\n", format.MimeDescription(e.MimeType))
	if !e.IsFolder() {
		fmt.Printf("Size:      %s (%d bytes)\n", format.FormatSize(e.Size), e.Size)
	}
	fmt.Printf("Parent:    %s\n", e.ParentID)
	if !e.ModTime.IsZero() {
		fmt.Printf("Modified:  %s\n", format.FormatTime(e.ModTime))
	}
}

// newStatusCmd checks the connection and reports account storage.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and storage quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := loadCredentials()
			if err != nil {
				return err
			}
			client, err := api.NewClient(creds)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}
			storage := services.NewDriveStorage(client)
			ctx := GetContext()

			fmt.Printf("Endpoint:   %s\n", creds.APIBaseURL)
			if http.NeedsProxyPassword(creds) {
				fmt.Println("Proxy:      user set but DRIVEMAN_PROXY_PASSWORD is empty; proxy auth is off")
			}

			if err := storage.Ping(ctx); err != nil {
				fmt.Println("Connection: FAILED")
				return fmt.Errorf("connection test failed: %w", err)
			}
			fmt.Println("Connection: OK")

			about, err := storage.About(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch account info: %w", err)
			}

			if about.DisplayName != "" || about.UserEmail != "" {
				fmt.Printf("Account:    %s (%s)\n", about.DisplayName, about.UserEmail)
			}
			if about.QuotaBytesTotal > 0 {
				pct := float64(about.QuotaBytesUsed) / float64(about.QuotaBytesTotal) * 100.0
				fmt.Printf("Storage:    %s of %s used (%.1f%%)\n",
					format.FormatSize(about.QuotaBytesUsed),
					format.FormatSize(about.QuotaBytesTotal), pct)
			} else {
				fmt.Printf("Storage:    %s used (no quota)\n", format.FormatSize(about.QuotaBytesUsed))
			}
			if about.RootFolderID != "" {
				fmt.Printf("Root ID:    %s\n", about.RootFolderID)
			}

			if settings, _, err := loadSettings(); err == nil && settings.LastDownloadPath != "" {
				if dir, err := paths.ResolveAbsolute(settings.LastDownloadPath); err == nil {
					if free := diskspace.GetAvailableSpace(filepath.Join(dir, "download")); free > 0 {
						fmt.Printf("Downloads:  %s free in %s\n", format.FormatSize(free), dir)
					}
				}
			}
			return nil
		},
	}
}
