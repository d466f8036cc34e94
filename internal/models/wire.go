package models

// RemoteFile represents a file or folder row as returned by the drive API.
// Listing rows are mapped to Entry values via EntryFromRemote; rows the
// backend returns in a broken state (no id, no title) fail that mapping and
// are skipped by callers.
type RemoteFile struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	MimeType     string      `json:"mimeType"`
	Size         int64       `json:"fileSize,omitempty"`
	ModifiedDate string      `json:"modifiedDate,omitempty"`
	Parents      []ParentRef `json:"parents,omitempty"`
	DownloadURL  string      `json:"downloadUrl,omitempty"`
	OwnerNames   []string    `json:"ownerNames,omitempty"`
	Trashed      bool        `json:"trashed,omitempty"`
}

// ParentRef references a containing folder.
type ParentRef struct {
	ID string `json:"id"`
}

// FileListResponse represents one page of a folder listing.
type FileListResponse struct {
	Count   int          `json:"count"`
	Next    *string      `json:"next"`
	Results []RemoteFile `json:"results"`
}

// CreateFolderRequest creates an empty folder under a parent.
// MimeType must be the folder sentinel; the API rejects anything else.
type CreateFolderRequest struct {
	Title    string      `json:"title"`
	MimeType string      `json:"mimeType"`
	Parents  []ParentRef `json:"parents"`
}

// UpdateFileRequest patches file metadata. Zero-valued fields are omitted
// so a rename does not clobber the parent list and vice versa.
type UpdateFileRequest struct {
	Title   string      `json:"title,omitempty"`
	Parents []ParentRef `json:"parents,omitempty"`
}

// AboutResponse describes the authenticated account and its quota.
type AboutResponse struct {
	UserEmail       string `json:"userEmail"`
	DisplayName     string `json:"displayName"`
	QuotaBytesTotal int64  `json:"quotaBytesTotal"`
	QuotaBytesUsed  int64  `json:"quotaBytesUsed"`
	RootFolderID    string `json:"rootFolderId"`
}
