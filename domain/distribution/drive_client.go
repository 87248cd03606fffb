package distribution

import (
	"context"
	"time"
)

// DriveClient is the Google Drive port used by the drive uploader
type DriveClient interface {
	// FindFileByName returns the newest file called fileName in folderID, or nil when absent
	FindFileByName(ctx context.Context, folderID, fileName string) (*RemoteFile, error)

	GetStorageQuota(ctx context.Context) (*StorageInfo, error)

	// UploadAndShare uploads a file into folderID and grants "anyone with the link" read access
	UploadAndShare(ctx context.Context, folderID string, req UploadRequest) (*UploadResult, error)

	// DeletePermanently removes a file without moving it to the trash
	DeletePermanently(ctx context.Context, fileID string) error
}

// RemoteFile is a cut already stored on a distribution target
type RemoteFile struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
	Created  time.Time
}
