package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/constants"
	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/localfs"
	"github.com/driveman/driveman/internal/ops"
	"github.com/driveman/driveman/internal/progress"
	"github.com/driveman/driveman/internal/util/format"
	"github.com/driveman/driveman/internal/util/paths"
)

// newUploadCmd uploads files, or a whole directory tree with -r.
func newUploadCmd() *cobra.Command {
	var (
		destID    string
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "upload <paths...>",
		Short: "Upload files or a folder",
		Long: `Upload files into a folder, root by default. Glob patterns are expanded
even when the shell did not, so quoted patterns work on Windows.

With -r a single directory is uploaded recursively: remote folders are
created parent-first and hidden entries are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if destID == "" {
				destID = constants.RootFolderID
			}
			if recursive {
				if len(args) != 1 {
					return fmt.Errorf("upload -r takes exactly one directory, got %d arguments", len(args))
				}
				return runFolderUpload(args[0], destID)
			}
			return runFileUpload(args, destID)
		},
	}

	cmd.Flags().StringVarP(&destID, "dest", "d", "", "Destination folder ID (default: root)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Upload a directory tree recursively")

	return cmd
}

func runFileUpload(patterns []string, destID string) error {
	paths, err := expandGlobPatterns(patterns)
	if err != nil {
		return err
	}

	items := make([]ops.Item, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot upload %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory; use upload -r for folders", path)
		}
		items = append(items, ops.Item{ID: path, Name: filepath.Base(path), Size: info.Size()})
	}

	storage, err := getStorage()
	if err != nil {
		return err
	}
	settings, _, err := loadSettings()
	if err != nil {
		return err
	}

	ui := progress.NewBatchUI("Uploading", len(items))
	storage.SetReporter(ui.Reporter())

	bus := events.NewEventBus(0)
	op := ops.NewOperation(ops.KindUpload, batchName(items, "files"), len(items), bus)

	runner := ops.NewRunner(op, "Uploading", items, func(ctx context.Context, item ops.Item) error {
		_, err := storage.Upload(ctx, item.ID, destID)
		return err
	})

	res := runBatch(GetContext(), bus, op, runner, ui.LogWriter(), true)
	ui.Wait()

	if line := summaryLine(res, "uploaded", "file"); line != "" {
		fmt.Println(line)
	}
	notifyResult(newNotifier(settings), res, ops.KindUpload, "")
	return batchError(res, "upload")
}

func runFolderUpload(dir, destID string) error {
	dir, err := paths.ResolveAbsolute(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot upload %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory; drop -r to upload files", dir)
	}

	scan, err := localfs.ScanTree(dir, localfs.WalkOptions{SkipHiddenDirs: true})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	storage, err := getStorage()
	if err != nil {
		return err
	}
	settings, _, err := loadSettings()
	if err != nil {
		return err
	}

	// Byte progress for the file in flight; folder-level lines come from
	// the event stream.
	storage.SetReporter(progress.NewCLIReporter())

	folderName := filepath.Base(scan.Root)
	fmt.Fprintf(os.Stderr, "Scanned %s: %d folders, %d files, %s\n",
		folderName, scan.DirCount+1, scan.FileCount, format.FormatSize(scan.TotalBytes))

	bus := events.NewEventBus(0)
	op := ops.NewOperation(ops.KindFolderUpload, folderName, scan.TotalItems()+1, bus)

	fu := ops.NewFolderUpload(op, storage, scan, destID)
	res := runBatch(GetContext(), bus, op, fu, os.Stderr, false)

	if !res.Cancelled && res.FatalErr == nil && res.Succeeded > 0 {
		fmt.Printf("Successfully uploaded folder: %s (%d of %d items)\n",
			folderName, res.Succeeded, res.Total)
	}
	notifyResult(newNotifier(settings), res, ops.KindFolderUpload, "")
	return batchError(res, "item")
}

// expandGlobPatterns expands glob patterns like *.zip, even when quoted.
// Returns a deduplicated list of absolute paths; a pattern matching nothing
// is an error rather than a silent no-op. Paths resolve through symlinks, so
// the same file reached two ways still uploads once.
func expandGlobPatterns(patterns []string) ([]string, error) {
	var expanded []string
	seen := make(map[string]bool)

	add := func(path string) error {
		abs, err := paths.ResolveAbsolute(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if !seen[abs] {
			expanded = append(expanded, abs)
			seen[abs] = true
		}
		return nil
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			if err := add(pattern); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", pattern)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}

	return expanded, nil
}

// batchName labels an operation after its work: the lone item's name, or
// the batch size.
func batchName(items []ops.Item, noun string) string {
	if len(items) == 1 {
		return items[0].Name
	}
	return fmt.Sprintf("%d %s", len(items), noun)
}
