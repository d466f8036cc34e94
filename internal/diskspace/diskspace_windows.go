//go:build windows

package diskspace

import (
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	getDiskFreeSpaceExW = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// CheckAvailableSpace verifies the volume holding targetPath has room for
// requiredBytes times safetyMargin. The target itself need not exist; its
// directory is what gets queried. When the volume cannot be queried (UNC
// paths to unreachable shares, substituted drives) the check passes and the
// write is left to fail on its own terms.
func CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	avail, ok := availableBytes(filepath.Dir(targetPath))
	if !ok {
		return nil
	}
	return checkSpace(targetPath, requiredBytes, avail, safetyMargin)
}

// GetAvailableSpace returns the free bytes on the volume containing path,
// or 0 when it cannot be determined.
func GetAvailableSpace(path string) int64 {
	avail, _ := availableBytes(filepath.Dir(path))
	return avail
}

// availableBytes calls GetDiskFreeSpaceExW. The first out parameter is the
// bytes available to the calling user, which respects per-user quotas;
// total and total-free are required by the API but unused here.
func availableBytes(dir string) (int64, bool) {
	var freeToCaller, total, totalFree uint64

	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, false
	}

	ret, _, _ := getDiskFreeSpaceExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeToCaller)),
		uintptr(unsafe.Pointer(&total)),
		uintptr(unsafe.Pointer(&totalFree)),
	)
	if ret == 0 {
		return 0, false
	}
	return int64(freeToCaller), true
}
