package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/driveman/driveman/internal/constants"
)

// BatchUI renders one mpb progress bar per transferred file. Bars are
// removed as they complete; summary lines are written through the mpb
// writer so they print above any active bar instead of tearing it.
//
// On a non-TTY stderr the bars are disabled and each file prints a single
// start line instead.
type BatchUI struct {
	progress   *mpb.Progress
	isTerminal bool
	verb       string // "Uploading" or "Downloading"
	total      int
	started    atomic.Int32
	completed  atomic.Int32
}

// NewBatchUI creates a batch transfer UI. verb names the direction shown in
// non-TTY start lines, totalFiles sizes the [i/N] counters.
func NewBatchUI(verb string, totalFiles int) *BatchUI {
	tty := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if tty {
		enableVirtualTerminal(os.Stderr)

		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(constants.ProgressUpdateInterval),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &BatchUI{
		progress:   p,
		isTerminal: tty,
		verb:       verb,
		total:      totalFiles,
	}
}

// Bar is one file's progress bar within a BatchUI.
type Bar struct {
	bar        *mpb.Bar
	ui         *BatchUI
	index      int
	name       string
	size       int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
}

// AddBar opens the next file's progress bar. name is the display name
// (long paths are truncated to their last two components).
func (u *BatchUI) AddBar(name string, size int64) *Bar {
	index := int(u.started.Add(1))
	display := shortDisplay(name, 2)

	b := &Bar{
		ui:         u,
		index:      index,
		name:       display,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	if u.isTerminal {
		b.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Any(func(s decor.Statistics) string {
					return fmt.Sprintf("[%d/%d] %s (%.1f MiB)",
						b.index, u.total,
						display,
						float64(size)/(1024*1024))
				}, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Name("ETA ", decor.WCSyncWidth),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "%s [%d/%d]: %s (%.1f MiB)\n",
			u.verb, index, u.total,
			display,
			float64(size)/(1024*1024))
	}

	return b
}

// SetCurrent advances the bar to an absolute byte position.
//
// Updates are throttled to the redraw cadence, and the elapsed time since
// the last accepted update is fed to EwmaIncrBy so the speed and ETA
// estimates stay honest across stalls.
func (b *Bar) SetCurrent(current int64) {
	if b.bar == nil {
		return
	}

	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)

	if elapsed >= constants.ProgressUpdateInterval {
		b.bar.EwmaIncrBy(int(current-b.lastBytes), elapsed)
		b.lastBytes = current
		b.lastUpdate = now
	}
}

// Complete closes the bar. The success path forces an exact 100% fill so
// rounding never strands a bar at 99%; the failure path aborts it.
func (b *Bar) Complete(err error) {
	if b.bar != nil {
		if err == nil {
			b.bar.SetCurrent(b.size)
			b.bar.SetTotal(b.size, true)
		} else {
			b.bar.Abort(true)
		}
	}
	b.ui.completed.Add(1)
}

// Wait blocks until every bar has completed or aborted.
func (u *BatchUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Completed returns the number of closed bars.
func (u *BatchUI) Completed() int {
	return int(u.completed.Load())
}

// LogWriter returns a writer that safely prints above active bars.
func (u *BatchUI) LogWriter() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// IsTerminal reports whether bars are actually rendering.
func (u *BatchUI) IsTerminal() bool {
	return u.isTerminal
}

// Reporter adapts the batch UI to the Reporter interface: each Start opens
// the next file's bar. Batches transfer one file at a time, so at most one
// bar is live per reporter.
func (u *BatchUI) Reporter() Reporter {
	return &batchReporter{ui: u}
}

type batchReporter struct {
	ui  *BatchUI
	bar *Bar
}

func (r *batchReporter) Start(total int64, description string) {
	name := description
	if i := strings.IndexByte(name, ' '); i >= 0 {
		// Descriptions read "Uploading <name>"; the bar label re-adds context.
		name = name[i+1:]
	}
	r.bar = r.ui.AddBar(name, total)
}

func (r *batchReporter) Update(current int64) {
	if r.bar != nil {
		r.bar.SetCurrent(current)
	}
}

func (r *batchReporter) Finish() {
	if r.bar != nil {
		r.bar.Complete(nil)
		r.bar = nil
	}
}

func (r *batchReporter) Error(err error) {
	if r.bar != nil {
		r.bar.Complete(err)
		r.bar = nil
	}
}

// shortDisplay trims a path down to its trailing keep components for bar
// labels. shortDisplay("/a/b/c/d/file.txt", 2) yields "…/d/file.txt".
func shortDisplay(path string, keep int) string {
	s := filepath.ToSlash(path)
	idx := len(s)
	for i := 0; i < keep; i++ {
		cut := strings.LastIndexByte(s[:idx], '/')
		if cut < 0 {
			return path
		}
		idx = cut
	}
	return "…" + s[idx:]
}
