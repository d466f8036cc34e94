package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/driveman/driveman/internal/localfs"
)

// FolderUpload mirrors a local directory tree into remote storage. The
// tree is walked pre-order, so every remote folder exists before anything
// goes into it: the destination folder itself first, then each directory
// before its contents.
//
// The scan is taken up front (localfs.ScanTree) so progress has a real
// total: one step per folder creation plus one per file upload.
type FolderUpload struct {
	op       *Operation
	storage  Storage
	scan     *localfs.TreeScan
	parentID string
	refresh  func()

	rootID string
}

// NewFolderUpload prepares an upload of the scanned tree into the remote
// folder parentID. The operation's total should be scan.TotalItems()+1,
// counting the creation of the destination folder itself.
func NewFolderUpload(op *Operation, storage Storage, scan *localfs.TreeScan, parentID string) *FolderUpload {
	return &FolderUpload{
		op:       op,
		storage:  storage,
		scan:     scan,
		parentID: parentID,
	}
}

// SetRefresh registers the listing-refresh callback, same contract as
// Runner.SetRefresh.
func (f *FolderUpload) SetRefresh(fn func()) {
	f.refresh = fn
}

// RootFolderID returns the created destination folder's remote ID. Empty
// until Run has created it.
func (f *FolderUpload) RootFolderID() string {
	return f.rootID
}

// Start runs the upload on its own goroutine and returns a channel that
// yields the single Result.
func (f *FolderUpload) Start(ctx context.Context) <-chan *Result {
	done := make(chan *Result, 1)
	go func() {
		done <- f.Run(ctx)
	}()
	return done
}

// Run executes the tree upload on the calling goroutine.
//
// Folder IDs are collected in a map keyed by tree-relative path; each
// entry looks up its parent there. When a folder creation failed earlier,
// descendants fall back to the destination root rather than failing too,
// so one bad directory does not sink the rest of the tree.
func (f *FolderUpload) Run(ctx context.Context) *Result {
	total := f.scan.TotalItems() + 1
	start := time.Now()
	res := &Result{Total: total}

	f.op.publishStarted(total)

	rootName := filepath.Base(f.scan.Root)
	f.op.ReportStatus(fmt.Sprintf("Uploading folder: %s", rootName), 0)

	// The destination folder is step zero. Without it nothing else has a
	// home, so failure here aborts the whole upload.
	res.Attempted++
	rootID, err := f.createFolder(ctx, rootName, f.parentID)
	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, ItemError{Item: Item{Name: rootName}, Err: err})
		f.op.RecordError(f.op.kind, err, true)
		res.FatalErr = err
		f.finish(res, start, total)
		return res
	}
	res.Succeeded++
	f.op.tracker.ItemCompleted()
	f.rootID = rootID

	folders := map[string]string{".": rootID}

	for i, entry := range f.scan.Entries {
		if f.op.Cancelled() {
			break
		}

		step := i + 1 // step 0 was the destination folder
		percent := float64(step) / float64(total) * 100.0
		parent := f.parentFor(folders, entry.Rel)

		var label string
		if entry.IsDir {
			label = fmt.Sprintf("Creating folder: %s", entry.Rel)
		} else {
			label = fmt.Sprintf("Uploading: %s", entry.Rel)
		}
		f.op.reportItem(step, label, percent)

		res.Attempted++
		err := f.runEntry(ctx, entry, parent, folders)
		if err == nil {
			res.Succeeded++
			f.op.tracker.ItemCompleted()
			continue
		}

		fatal := isFatal(err)
		res.Failed++
		res.Errors = append(res.Errors, ItemError{Item: Item{ID: entry.Path, Name: entry.Rel, Size: entry.Size}, Err: err})
		f.op.RecordError(f.op.kind, err, fatal)
		if fatal {
			res.FatalErr = err
			break
		}
	}

	f.finish(res, start, total)
	return res
}

// parentFor resolves the remote parent for a tree-relative path, falling
// back to the destination root when the mapped folder is missing.
func (f *FolderUpload) parentFor(folders map[string]string, rel string) string {
	if id, ok := folders[filepath.Dir(rel)]; ok {
		return id
	}
	return f.rootID
}

// runEntry performs one step of the walk, shielding the loop from a
// panicking storage implementation the same way Runner.runItem does.
func (f *FolderUpload) runEntry(ctx context.Context, entry localfs.FileEntry, parent string, folders map[string]string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("folder upload %q panicked: %v", entry.Rel, rec)
		}
	}()

	if entry.IsDir {
		id, err := f.storage.CreateFolder(ctx, entry.Name, parent)
		if err != nil {
			return err
		}
		folders[entry.Rel] = id
		return nil
	}
	_, err = f.storage.Upload(ctx, entry.Path, parent)
	return err
}

// createFolder shields the destination-folder creation the same way.
func (f *FolderUpload) createFolder(ctx context.Context, name, parent string) (id string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("create folder %q panicked: %v", name, rec)
		}
	}()
	return f.storage.CreateFolder(ctx, name, parent)
}

func (f *FolderUpload) finish(res *Result, start time.Time, total int) {
	res.Cancelled = f.op.Cancelled()
	res.Skipped = total - res.Attempted
	res.Duration = time.Since(start)

	switch {
	case res.Cancelled:
		f.op.publishCancelled(res.Attempted, total)
	case res.FatalErr == nil && res.Succeeded > 0:
		f.op.publishComplete(res)
		if f.refresh != nil {
			f.refresh()
		}
	}
}
