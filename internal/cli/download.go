package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/constants"
	"github.com/driveman/driveman/internal/diskspace"
	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/ops"
	"github.com/driveman/driveman/internal/progress"
	"github.com/driveman/driveman/internal/util/paths"
)

// newDownloadCmd downloads files by ID into a local directory.
func newDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download <ids...>",
		Short: "Download files by ID",
		Long: `Download one or more files into a directory. The default directory is the
last_download_path setting. Names are sanitized for the local filesystem and
never overwrite: an existing name gets a " (1)" style suffix.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(dedupe(args), outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "outdir", "o", "", "Output directory (default: last_download_path setting)")

	return cmd
}

func runDownload(ids []string, outputDir string) error {
	storage, err := getStorage()
	if err != nil {
		return err
	}
	settings, settingsPath, err := loadSettings()
	if err != nil {
		return err
	}

	if outputDir == "" {
		outputDir = settings.LastDownloadPath
	}
	absDir, err := paths.ResolveAbsolute(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", outputDir, err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", absDir, err)
	}

	// Plan before any bytes move: resolve every ID to a collision-free
	// local path, rejecting folders and typos up front.
	ctx := GetContext()
	items := make([]ops.Item, 0, len(ids))
	dest := make(map[string]string, len(ids))
	var totalBytes int64
	for _, id := range ids {
		entry, path, err := storage.ResolveDownloadPath(ctx, id, absDir)
		if err != nil {
			return fmt.Errorf("cannot download %s: %w", id, err)
		}
		items = append(items, ops.Item{ID: entry.ID, Name: entry.Title, Size: entry.Size})
		dest[entry.ID] = path
		totalBytes += entry.Size
	}

	// Whole-batch space preflight; each download re-checks its own size.
	if err := diskspace.CheckAvailableSpace(filepath.Join(absDir, "download"), totalBytes, constants.DiskSpaceSafetyMargin); err != nil {
		if diskspace.IsInsufficientSpaceError(err) {
			return fmt.Errorf("%w (free up space or pass --outdir)", err)
		}
		return err
	}

	ui := progress.NewBatchUI("Downloading", len(items))
	storage.SetReporter(ui.Reporter())

	bus := events.NewEventBus(0)
	op := ops.NewOperation(ops.KindDownload, batchName(items, "files"), len(items), bus)

	runner := ops.NewRunner(op, "Downloading", items, func(ctx context.Context, item ops.Item) error {
		return storage.Download(ctx, item.ID, dest[item.ID])
	})

	res := runBatch(ctx, bus, op, runner, ui.LogWriter(), true)
	ui.Wait()

	if line := summaryLine(res, "downloaded", "file"); line != "" {
		fmt.Printf("%s to %s\n", line, absDir)
	}
	if res.Succeeded > 0 {
		rememberDownloadDir(settings, settingsPath, absDir)
	}
	notifyResult(newNotifier(settings), res, ops.KindDownload, absDir)
	return batchError(res, "download")
}

// rememberDownloadDir persists the directory as last_download_path, which
// seeds the next download's default. Failure to save is only a warning.
func rememberDownloadDir(settings *config.Settings, settingsPath, dir string) {
	if settings.LastDownloadPath == dir {
		return
	}
	settings.LastDownloadPath = dir
	if err := config.SaveSettings(settings, settingsPath); err != nil {
		logger.Warnf("Failed to save last_download_path: %v", err)
	}
}

// dedupe drops repeated IDs, keeping first-occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
