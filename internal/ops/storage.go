package ops

import (
	"context"

	"github.com/driveman/driveman/internal/models"
)

// Storage is everything a batch needs from the remote side. Declared here,
// on the consumer, so runners can be exercised against fakes and the
// production client stays swappable.
//
// Every call is synchronous and carries a context for transport deadlines
// and process shutdown. Batch cancellation does not flow through the
// context: runners poll their operation's flag between calls instead, so an
// in-flight call always runs to completion.
type Storage interface {
	// ListChildren returns the direct children of a folder, already mapped
	// to entries and sorted folders-first.
	ListChildren(ctx context.Context, folderID string) ([]models.Entry, error)

	// Upload stores the local file under the given remote folder and
	// returns the new entry's ID.
	Upload(ctx context.Context, localPath, parentID string) (string, error)

	// Download streams a remote file to the local path.
	Download(ctx context.Context, id, localPath string) error

	// CreateFolder creates a folder under parentID and returns its ID.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// Delete removes a file, or a folder with its contents.
	Delete(ctx context.Context, id string) error

	// GetInfo fetches metadata for a single entry.
	GetInfo(ctx context.Context, id string) (models.Entry, error)
}
