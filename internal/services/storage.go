// Package services provides the frontend-agnostic business layer of driveman.
// DriveStorage adapts the raw API client to the storage contract the batch
// runners consume, adding the local-filesystem half of transfers: opening and
// streaming files, destination hygiene, and disk-space preflight.
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/driveman/driveman/internal/api"
	"github.com/driveman/driveman/internal/constants"
	"github.com/driveman/driveman/internal/diskspace"
	"github.com/driveman/driveman/internal/logging"
	"github.com/driveman/driveman/internal/models"
	"github.com/driveman/driveman/internal/ops"
	"github.com/driveman/driveman/internal/progress"
	"github.com/driveman/driveman/internal/util/paths"
	"github.com/driveman/driveman/internal/util/sanitize"
	"github.com/driveman/driveman/internal/validation"
)

// DriveStorage implements ops.Storage over the drive API client.
// It is frontend-agnostic: batch runners and CLI commands share one instance.
type DriveStorage struct {
	apiClient *api.Client
	logger    *logging.Logger
	reporter  progress.Reporter

	mu sync.RWMutex
}

var _ ops.Storage = (*DriveStorage)(nil)

// NewDriveStorage creates a DriveStorage over the given client.
// A nil client makes every call fail with a clear error.
func NewDriveStorage(apiClient *api.Client) *DriveStorage {
	return &DriveStorage{
		apiClient: apiClient,
		logger:    logging.NewLogger("storage"),
		reporter:  progress.NewNoOpReporter(),
	}
}

// SetReporter installs a byte-level progress reporter for transfers.
// The default is a no-op.
func (ds *DriveStorage) SetReporter(r progress.Reporter) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if r == nil {
		r = progress.NewNoOpReporter()
	}
	ds.reporter = r
}

func (ds *DriveStorage) client() (*api.Client, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.apiClient == nil {
		return nil, fmt.Errorf("API client not configured")
	}
	return ds.apiClient, nil
}

func (ds *DriveStorage) progressReporter() progress.Reporter {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.reporter
}

// ListChildren returns the direct children of a folder, mapped to entries and
// sorted folders-first. Rows the backend returns in a broken state are
// skipped with a warning rather than failing the whole listing.
func (ds *DriveStorage) ListChildren(ctx context.Context, folderID string) ([]models.Entry, error) {
	apiClient, err := ds.client()
	if err != nil {
		return nil, err
	}

	if folderID == "" {
		folderID = constants.RootFolderID
	}

	rows, err := apiClient.ListChildren(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder contents: %w", err)
	}

	entries := make([]models.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := models.EntryFromRemote(row)
		if err != nil {
			ds.logger.Warn().Err(err).Str("id", row.ID).Msg("Skipping malformed listing row")
			continue
		}
		entries = append(entries, entry)
	}

	models.SortEntries(entries)
	return entries, nil
}

// Upload stores a local file under the given remote folder and returns the
// new entry's ID. The file must exist and must not be a directory; directory
// trees go through the recursive folder upload instead.
func (ds *DriveStorage) Upload(ctx context.Context, localPath, parentID string) (string, error) {
	apiClient, err := ds.client()
	if err != nil {
		return "", err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("cannot read local file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", localPath)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	if parentID == "" {
		parentID = constants.RootFolderID
	}

	title := filepath.Base(localPath)
	reporter := ds.progressReporter()
	reporter.Start(info.Size(), "Uploading "+title)
	defer reporter.Finish()

	remote, err := apiClient.Upload(ctx, progress.NewReader(file, reporter), title, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", title, err)
	}

	ds.logger.Debug().Str("id", remote.ID).Str("title", title).Msg("File uploaded")
	return remote.ID, nil
}

// Download streams a remote file to localPath. The destination directory is
// created if missing, available disk space is checked when the server reports
// a size, and the content lands in a .part file renamed into place on
// success so an interrupted download never leaves a truncated target.
func (ds *DriveStorage) Download(ctx context.Context, id, localPath string) error {
	apiClient, err := ds.client()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	body, size, err := apiClient.Download(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to start download: %w", err)
	}
	defer body.Close()

	if size > 0 {
		if err := diskspace.CheckAvailableSpace(localPath, size, constants.DiskSpaceSafetyMargin); err != nil {
			return err
		}
	}

	reporter := ds.progressReporter()
	reporter.Start(size, "Downloading "+filepath.Base(localPath))
	defer reporter.Finish()

	partPath := localPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", partPath, err)
	}

	if _, err := io.Copy(out, progress.NewReader(body, reporter)); err != nil {
		out.Close()
		os.Remove(partPath)
		return fmt.Errorf("download of %s failed: %w", id, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to finalize download: %w", err)
	}

	if err := os.Rename(partPath, localPath); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to finalize download: %w", err)
	}

	ds.logger.Debug().Str("id", id).Str("local_path", localPath).Msg("File downloaded")
	return nil
}

// CreateFolder creates a folder under parentID and returns its ID.
// The name is trimmed and validated before any remote call.
func (ds *DriveStorage) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	apiClient, err := ds.client()
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("folder name must not be empty")
	}
	if parentID == "" {
		parentID = constants.RootFolderID
	}

	remote, err := apiClient.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	return remote.ID, nil
}

// Delete removes a file, or a folder with its contents.
func (ds *DriveStorage) Delete(ctx context.Context, id string) error {
	apiClient, err := ds.client()
	if err != nil {
		return err
	}

	if err := apiClient.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// GetInfo fetches metadata for a single entry.
func (ds *DriveStorage) GetInfo(ctx context.Context, id string) (models.Entry, error) {
	apiClient, err := ds.client()
	if err != nil {
		return models.Entry{}, err
	}

	remote, err := apiClient.GetFileInfo(ctx, id)
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to get info for %s: %w", id, err)
	}

	entry, err := models.EntryFromRemote(*remote)
	if err != nil {
		return models.Entry{}, fmt.Errorf("malformed metadata for %s: %w", id, err)
	}
	return entry, nil
}

// Move reparents an entry under a new folder.
func (ds *DriveStorage) Move(ctx context.Context, id, newParentID string) error {
	apiClient, err := ds.client()
	if err != nil {
		return err
	}

	if newParentID == "" {
		newParentID = constants.RootFolderID
	}
	if err := apiClient.MoveFile(ctx, id, newParentID); err != nil {
		return fmt.Errorf("failed to move %s: %w", id, err)
	}
	return nil
}

// Rename changes an entry's display title.
func (ds *DriveStorage) Rename(ctx context.Context, id, newTitle string) error {
	apiClient, err := ds.client()
	if err != nil {
		return err
	}

	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return fmt.Errorf("new title must not be empty")
	}
	if err := apiClient.RenameFile(ctx, id, newTitle); err != nil {
		return fmt.Errorf("failed to rename %s: %w", id, err)
	}
	return nil
}

// About returns the authenticated account's profile and quota.
func (ds *DriveStorage) About(ctx context.Context) (*models.AboutResponse, error) {
	apiClient, err := ds.client()
	if err != nil {
		return nil, err
	}
	return apiClient.About(ctx)
}

// Ping verifies connectivity and credentials with a minimal request.
func (ds *DriveStorage) Ping(ctx context.Context) error {
	apiClient, err := ds.client()
	if err != nil {
		return err
	}
	return apiClient.TestConnection(ctx)
}

// ResolveDownloadPath plans a download target inside dir for the given entry:
// fetch metadata, sanitize the title into a safe filename, and pick a
// collision-free path. Folders are rejected; they cannot be downloaded.
func (ds *DriveStorage) ResolveDownloadPath(ctx context.Context, id, dir string) (models.Entry, string, error) {
	entry, err := ds.GetInfo(ctx, id)
	if err != nil {
		return models.Entry{}, "", err
	}
	if entry.IsFolder() {
		return models.Entry{}, "", fmt.Errorf("%s is a folder; only files can be downloaded", entry.Title)
	}

	name := sanitize.SanitizeFileName(entry.Title)
	if err := validation.ValidateFilename(name); err != nil {
		return models.Entry{}, "", fmt.Errorf("unusable filename for %s: %w", id, err)
	}

	target := paths.NextAvailablePath(filepath.Join(dir, name))
	if err := validation.ValidatePathInDirectory(target, dir); err != nil {
		return models.Entry{}, "", fmt.Errorf("unusable download target for %s: %w", id, err)
	}
	return entry, target, nil
}
