package localfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileEntry is one local file or directory.
type FileEntry struct {
	Path    string      // Full path to the file
	Name    string      // Base name of the file
	Rel     string      // Path relative to the scan root; set by ScanTree only
	Size    int64       // Size in bytes (0 for directories)
	IsDir   bool        // True if this is a directory
	ModTime time.Time   // Last modification time
	Mode    fs.FileMode // Permission and type bits
}

// ListDirectory returns a directory's contents, filtered by opts, in
// os.ReadDir's name order. Entries that cannot be statted are left out.
func ListDirectory(path string, opts ListOptions) ([]FileEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	out := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && IsHiddenName(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		out = append(out, FileEntry{
			Path:    filepath.Join(path, name),
			Name:    name,
			Size:    info.Size(),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	}

	return out, nil
}

// walkFunc receives each entry of a walk. Returning filepath.SkipDir skips
// a directory's contents; any other error stops the walk.
type walkFunc func(entry FileEntry) error

// walk traverses a tree depth-first, directories before their contents. The
// root itself is not reported: it was chosen explicitly, so the hidden
// policy does not apply to it. Unreadable entries are skipped, not fatal.
func walk(root string, opts WalkOptions, fn walkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}

		name := d.Name()
		if !opts.IncludeHidden && IsHiddenName(name) {
			if d.IsDir() && opts.SkipHiddenDirs {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		return fn(FileEntry{
			Path:    path,
			Name:    name,
			Size:    info.Size(),
			IsDir:   d.IsDir(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	})
}

// TreeScan is the result of scanning a directory tree before a recursive
// upload. Entries preserve walk order, so every directory appears before
// anything inside it and the upload can create each remote folder before
// the files that go into it.
type TreeScan struct {
	Root       string      // Absolute path of the scanned root
	Entries    []FileEntry // Pre-order entries; the root itself is excluded
	DirCount   int
	FileCount  int
	TotalBytes int64 // Sum of file sizes
}

// TotalItems returns the number of remote operations a recursive upload of
// this tree will perform (one folder creation per directory, one upload per
// file). Progress totals come from this.
func (s *TreeScan) TotalItems() int {
	return s.DirCount + s.FileCount
}

// ScanTree walks a directory tree and collects everything a recursive upload
// needs up front: the entries in creation order, counts for progress totals,
// and the byte total for quota checks.
//
// Irregular files (sockets, devices, dangling symlinks) are skipped. Hidden
// entries follow opts.
func ScanTree(root string, opts WalkOptions) (*TreeScan, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	scan := &TreeScan{Root: absRoot}

	err = walk(absRoot, opts, func(entry FileEntry) error {
		if !entry.IsDir && !entry.Mode.IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, entry.Path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", entry.Path, err)
		}
		entry.Rel = rel

		scan.Entries = append(scan.Entries, entry)
		if entry.IsDir {
			scan.DirCount++
		} else {
			scan.FileCount++
			scan.TotalBytes += entry.Size
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return scan, nil
}
