// Package format renders sizes, timestamps and MIME types for display.
package format

import (
	"fmt"
	"strings"
	"time"
)

// FormatSize returns a human-readable byte count (1024-based units).
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatTime renders a modification time for listings.
// The zero time renders as an empty cell rather than year 1.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// mimeDescriptions maps common MIME types to short display labels.
var mimeDescriptions = map[string]string{
	"application/vnd.google-apps.folder":       "Folder",
	"application/vnd.google-apps.document":     "Document",
	"application/vnd.google-apps.spreadsheet":  "Spreadsheet",
	"application/vnd.google-apps.presentation": "Presentation",
	"application/pdf":   "PDF",
	"text/plain":        "Text",
	"text/csv":          "CSV",
	"image/jpeg":        "JPEG Image",
	"image/png":         "PNG Image",
	"video/mp4":         "MP4 Video",
	"audio/mpeg":        "MP3 Audio",
	"application/zip":   "ZIP Archive",
	"application/x-tar": "TAR Archive",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "Word Document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "Excel Spreadsheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "PowerPoint",
}

// MimeDescription returns a short label for a MIME type. Unknown types fall
// back to the upper-cased subtype ("application/x-foo" -> "X-FOO"), and
// anything unparseable is just "File".
func MimeDescription(mimeType string) string {
	if desc, ok := mimeDescriptions[mimeType]; ok {
		return desc
	}
	if i := strings.LastIndex(mimeType, "/"); i >= 0 && i < len(mimeType)-1 {
		return strings.ToUpper(mimeType[i+1:])
	}
	return "File"
}
