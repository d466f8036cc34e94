// Package constants holds the compile-time tuning values shared across
// packages. Nothing here is user configurable.
package constants

import (
	"time"
)

// Identifiers the backend treats specially.
const (
	// RootFolderID addresses the top level of the drive. The backend
	// accepts it anywhere a folder ID is expected.
	RootFolderID = "root"

	// RootFolderName is how the top level is shown to the user.
	RootFolderName = "My Drive"

	// FolderMimeType marks an entry as a folder. Every other MIME type is
	// a regular file.
	FolderMimeType = "application/vnd.google-apps.folder"
)

// Transfer retry schedule. RetryInitialDelay seeds the exponential backoff
// and RetryMaxDelay caps it after jitter.
const (
	MaxRetries        = 10
	RetryInitialDelay = 200 * time.Millisecond
	RetryMaxDelay     = 15 * time.Second
)

// ListPageSize is the page size requested from the listing endpoint.
// Listings follow the server's next links until exhausted either way.
const ListPageSize = 100

// APIConnectionTestTimeout bounds the connectivity probe behind the status
// command so a dead proxy fails the check quickly.
const APIConnectionTestTimeout = 10 * time.Second

// Transport settings shared by the JSON and transfer HTTP clients.
const (
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 60 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
)

// Event bus channel capacities. A subscriber that falls behind its buffer
// starts dropping events, so progress feeds get the larger size.
const (
	EventBusDefaultBuffer = 1000
	EventBusMaxBuffer     = 5000
)

// ProgressUpdateInterval is the shared redraw cadence for terminal progress
// bars and the throttle on byte-counter updates feeding them.
const ProgressUpdateInterval = 250 * time.Millisecond

// DiskSpaceSafetyMargin is multiplied into the download size before the
// free-space check. The headroom covers partial files and filesystem
// overhead.
const DiskSpaceSafetyMargin = 1.15

// MaxFilenameLength is the longest filename written to local disk. 255 is
// the per-component limit shared by NTFS, ext4 and APFS.
const MaxFilenameLength = 255

// CopyBufferSize is the size of the pooled buffers used when streaming file
// content. 1 MiB keeps transfers off io.Copy's default 32 KiB path while
// staying cheap enough to pool.
const CopyBufferSize = 1 << 20
