package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/notify"
	"github.com/driveman/driveman/internal/ops"
	stringutil "github.com/driveman/driveman/internal/util/strings"
)

// batchStarter is the common face of ops.Runner and ops.FolderUpload.
type batchStarter interface {
	Start(ctx context.Context) <-chan *ops.Result
}

// runBatch executes one batch and renders its event stream onto w until the
// stream ends. The command's context is translated into cooperative
// cancellation through the registry, so Ctrl-C lets the in-flight item
// finish before the loop stops.
//
// quietItems suppresses per-item progress lines for commands whose byte
// progress display already names each item.
func runBatch(ctx context.Context, bus *events.EventBus, op *ops.Operation, job batchStarter, w io.Writer, quietItems bool) *ops.Result {
	reg := ops.NewRegistry()
	reg.Add(op)
	defer reg.Remove(op.ID())

	watcherDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			reg.CancelAll()
		case <-watcherDone:
		}
	}()

	eventCh := bus.SubscribeAll()
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for ev := range eventCh {
			renderEvent(w, ev, quietItems)
		}
	}()

	res := <-job.Start(ctx)
	close(watcherDone)

	// Every event was published before the result arrived. Closing the bus
	// ends the subscription channel once the renderer has drained what is
	// still buffered, so nothing is lost.
	bus.Close()
	<-rendered
	if n := bus.Dropped(); n > 0 {
		logger.Debugf("event renderer fell behind, %d events dropped", n)
	}
	logger.Infof("%s batch done: %d succeeded, %d failed, %d skipped",
		op.Kind(), res.Succeeded, res.Failed, res.Skipped)
	return res
}

// renderEvent writes one event as a terminal line. The success summary is
// not printed here; commands derive it from the Result so they can add
// their own context, like the download destination.
func renderEvent(w io.Writer, ev events.Event, quietItems bool) {
	switch e := ev.(type) {
	case *events.ProgressEvent:
		if quietItems {
			return
		}
		fmt.Fprintln(w, e.Label)
	case *events.ErrorEvent:
		if e.Fatal {
			fmt.Fprintf(w, "Fatal: %v\n", e.Error)
		} else {
			fmt.Fprintf(w, "Error: %s: %v\n", e.Scope, e.Error)
		}
	case *events.OperationEvent:
		if e.Type() == events.EventOperationCancelled {
			fmt.Fprintf(w, "Cancelled after %d of %d items.\n", e.Attempted, e.Total)
		}
	}
}

// batchError maps a finished batch onto the command's exit error.
// Cancellation is a clean exit; the cancel line was already rendered.
func batchError(res *ops.Result, noun string) error {
	switch {
	case res.FatalErr != nil:
		return fmt.Errorf("aborted: %w", res.FatalErr)
	case res.Cancelled:
		return nil
	case res.Failed > 0:
		return fmt.Errorf("%d of %d %s failed", res.Failed, res.Total, stringutil.Pluralize(noun, res.Total))
	}
	return nil
}

// summaryLine is the terminal success summary, printed under the same gate
// as the CompleteEvent: not cancelled, not aborted, something succeeded.
// Wording matches the desktop notification, with the elapsed time appended.
func summaryLine(res *ops.Result, verb, noun string) string {
	if res.Cancelled || res.FatalErr != nil || res.Succeeded == 0 {
		return ""
	}
	line := fmt.Sprintf("Successfully %s %s", verb, stringutil.CountNoun(res.Succeeded, noun))
	if res.Failed > 0 {
		line += fmt.Sprintf(" (%d failed)", res.Failed)
	}
	if d := res.Duration.Round(100 * time.Millisecond); d > 0 {
		line += " in " + d.String()
	}
	return line
}

// newNotifier builds the desktop notifier for batch commands, honoring the
// notifications setting. Settings that fail to load just disable it.
func newNotifier(settings *config.Settings) *notify.Notifier {
	enabled := settings != nil && settings.Notifications
	return notify.NewNotifier(enabled, logger)
}

// notifyResult forwards the finished batch to the desktop notifier.
func notifyResult(n *notify.Notifier, res *ops.Result, kind, downloadDir string) {
	if res.FatalErr != nil {
		n.BatchFailed(kind, res.FatalErr)
		return
	}
	if res.Cancelled {
		return
	}
	if kind == ops.KindDownload {
		n.DownloadComplete(res.Succeeded, downloadDir)
		return
	}
	n.BatchComplete(kind, res.Succeeded, res.Failed)
}
