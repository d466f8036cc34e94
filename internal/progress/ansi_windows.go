//go:build windows

package progress

import (
	"os"

	"golang.org/x/sys/windows"
)

// Classic conhost ships with virtual terminal processing off; without it the
// multi-bar cursor sequences print as literal escape garbage.
const vtProcessing = 0x0004

// enableVirtualTerminal switches the console backing f into VT mode so ANSI
// escapes render. Redirected handles fail GetConsoleMode and are left alone.
func enableVirtualTerminal(f *os.File) {
	h := windows.Handle(f.Fd())
	var mode uint32
	if windows.GetConsoleMode(h, &mode) != nil {
		return
	}
	_ = windows.SetConsoleMode(h, mode|vtProcessing)
}
