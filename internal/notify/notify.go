// Package notify sends desktop notifications for finished batches through
// beeep, which covers Windows toasts, macOS notification center and D-Bus.
package notify

import (
	"fmt"
	"path/filepath"

	"github.com/gen2brain/beeep"

	"github.com/driveman/driveman/internal/logging"
	"github.com/driveman/driveman/internal/ops"
	stringutil "github.com/driveman/driveman/internal/util/strings"
)

// Notifier sends desktop notifications when batches finish. It is gated by
// the notifications setting; a disabled notifier swallows every call, so
// callers never need to branch.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
}

// NewNotifier creates a notifier. A nil logger falls back to a default one.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewLogger("notify")
	}
	return &Notifier{
		logger:  logger,
		enabled: enabled,
	}
}

// BatchComplete announces a finished batch, e.g. "Upload Complete" /
// "Successfully uploaded 3 files".
func (n *Notifier) BatchComplete(kind string, succeeded, failed int) {
	if !n.enabled || succeeded == 0 {
		return
	}

	title, message := summarize(kind, succeeded)
	if failed > 0 {
		message += fmt.Sprintf(" (%d failed)", failed)
	}

	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Warn().Err(err).Str("kind", kind).Msg("Failed to send completion notification")
	}
}

// DownloadComplete is the download variant, which includes the destination
// so the user knows where to look.
func (n *Notifier) DownloadComplete(succeeded int, dir string) {
	if !n.enabled || succeeded == 0 {
		return
	}

	message := fmt.Sprintf("Successfully downloaded %s to:\n%s",
		stringutil.CountNoun(succeeded, "file"), shortenPath(dir))

	if err := beeep.Notify("Download Complete", message, ""); err != nil {
		n.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to send download notification")
	}
}

// BatchFailed announces a batch aborted by a fatal error. It uses the more
// prominent alert style where the platform has one, falling back to a plain
// notification.
func (n *Notifier) BatchFailed(kind string, err error) {
	if !n.enabled || err == nil {
		return
	}

	title := failureTitle(kind)
	message := stringutil.Truncate(err.Error(), 100)

	if alertErr := beeep.Alert(title, message, ""); alertErr != nil {
		if sendErr := beeep.Notify(title, message, ""); sendErr != nil {
			n.logger.Warn().Err(sendErr).Str("kind", kind).Msg("Failed to send failure notification")
		}
	}
}

// summarize maps an operation kind to its notification title and body.
func summarize(kind string, succeeded int) (title, message string) {
	switch kind {
	case ops.KindUpload, ops.KindFolderUpload:
		return "Upload Complete", "Successfully uploaded " + stringutil.CountNoun(succeeded, "file")
	case ops.KindDownload:
		return "Download Complete", "Successfully downloaded " + stringutil.CountNoun(succeeded, "file")
	case ops.KindDelete:
		return "Delete Complete", "Successfully deleted " + stringutil.CountNoun(succeeded, "item")
	}
	return "Operation Complete", "Successfully processed " + stringutil.CountNoun(succeeded, "item")
}

func failureTitle(kind string) string {
	switch kind {
	case ops.KindUpload, ops.KindFolderUpload:
		return "Upload Failed"
	case ops.KindDownload:
		return "Download Failed"
	case ops.KindDelete:
		return "Delete Failed"
	}
	return "Operation Failed"
}

// shortenPath compacts a long directory path for the notification body:
// the last two components behind an ellipsis, with the drive letter put
// back when it fits, or the raw tail of the string as a last resort.
func shortenPath(path string) string {
	const maxLen = 60
	if len(path) <= maxLen {
		return path
	}

	tail := filepath.Join("...", filepath.Base(filepath.Dir(path)), filepath.Base(path))
	if vol := filepath.VolumeName(path); vol != "" && len(vol)+1+len(tail) <= maxLen {
		tail = vol + string(filepath.Separator) + tail
	}
	if len(tail) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return tail
}
