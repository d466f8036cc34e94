//go:build !windows

package progress

import "os"

// enableVirtualTerminal is a no-op where terminals speak ANSI natively.
func enableVirtualTerminal(*os.File) {}
