// Package diskspace answers whether a download destination has room before
// any bytes move, so a batch fails up front with a clear error instead of
// dying mid-write on a full disk.
package diskspace

import (
	"errors"
	"fmt"

	"github.com/driveman/driveman/internal/util/format"
)

// InsufficientSpaceError reports a failed space check. Need already includes
// the safety margin the check was run with.
type InsufficientSpaceError struct {
	Path string
	Need int64
	Have int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough disk space for %s: need %s, %s free",
		e.Path, format.FormatSize(e.Need), format.FormatSize(e.Have))
}

// IsInsufficientSpaceError reports whether err is a space-check failure,
// however deeply wrapped.
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}

// checkSpace compares free bytes against the requirement inflated by the
// safety margin. Platform files supply the free figure.
func checkSpace(path string, need, free int64, margin float64) error {
	padded := int64(float64(need) * margin)
	if free >= padded {
		return nil
	}
	return &InsufficientSpaceError{Path: path, Need: padded, Have: free}
}
