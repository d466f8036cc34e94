//go:build !windows

package diskspace

import (
	"path/filepath"
	"syscall"
)

// CheckAvailableSpace verifies the filesystem holding targetPath has room
// for requiredBytes times safetyMargin. The target itself need not exist;
// its directory is what gets statted. When the filesystem cannot be statted
// at all (network mounts, FUSE oddities) the check passes and the write is
// left to fail on its own terms.
func CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	avail, ok := availableBytes(filepath.Dir(targetPath))
	if !ok {
		return nil
	}
	return checkSpace(targetPath, requiredBytes, avail, safetyMargin)
}

// GetAvailableSpace returns the free bytes on the filesystem containing
// path, or 0 when it cannot be determined.
func GetAvailableSpace(path string) int64 {
	avail, _ := availableBytes(filepath.Dir(path))
	return avail
}

// availableBytes stats the filesystem at dir. Bavail counts blocks free to
// unprivileged users, which is the figure a download can actually use.
func availableBytes(dir string) (int64, bool) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return int64(stat.Bavail) * int64(stat.Bsize), true
}
