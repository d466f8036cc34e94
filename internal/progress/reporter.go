// Package progress covers both halves of transfer feedback: pure counter
// math for batch state (Tracker) and terminal rendering for bytes in
// flight (Reporter implementations and the mpb BatchUI).
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/driveman/driveman/internal/constants"
)

// Reporter receives byte-level progress for one transfer at a time.
// Batches run their items sequentially, so a single Reporter is reused:
// Start opens a new transfer, Update advances it, Finish closes it.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
}

// CLIReporter renders a single-line progress bar on stderr.
type CLIReporter struct {
	bar *progressbar.ProgressBar
}

// NewCLIReporter creates a CLI progress reporter.
func NewCLIReporter() *CLIReporter {
	return &CLIReporter{}
}

// Start opens a fresh bar sized to the incoming transfer.
func (p *CLIReporter) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(constants.ProgressUpdateInterval),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to the current byte position.
func (p *CLIReporter) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish closes out the bar so the next Start draws a new one.
func (p *CLIReporter) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// Error displays an error message below the bar.
func (p *CLIReporter) Error(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
	}
}

// NoOpReporter discards all progress. Used for background operations and as
// the default until a front end installs a real reporter.
type NoOpReporter struct{}

// NewNoOpReporter creates a reporter that does nothing.
func NewNoOpReporter() *NoOpReporter {
	return &NoOpReporter{}
}

func (p *NoOpReporter) Start(total int64, description string) {}
func (p *NoOpReporter) Update(current int64)                  {}
func (p *NoOpReporter) Finish()                               {}
func (p *NoOpReporter) Error(err error)                       {}

// Reader wraps an io.Reader and reports cumulative bytes read to a Reporter.
// Wrap an upload source or download body so transfers render live.
type Reader struct {
	reader   io.Reader
	reporter Reporter
	current  int64
}

// NewReader creates a progress-reporting reader.
func NewReader(reader io.Reader, reporter Reporter) *Reader {
	return &Reader{
		reader:   reader,
		reporter: reporter,
	}
}

// Read implements io.Reader with progress reporting.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	pr.reporter.Update(pr.current)
	return n, err
}
