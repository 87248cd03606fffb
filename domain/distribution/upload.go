package distribution

import (
	"context"
	"fmt"
	"strings"
)

// Target names a place a finished cut can be uploaded to
type Target string

const (
	TargetDrive Target = "drive"
	TargetMinio Target = "minio"
)

// ParseTarget validates a target name
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetDrive, TargetMinio:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (use drive or minio)", ErrUnknownTarget, s)
}

// UploadRequest contains the parameters needed to upload a cut
type UploadRequest struct {
	LocalPath string // Full path to the local file
	FileName  string // Target name at the destination
	MimeType  string // MIME type of the file
	Size      int64  // Size of the local file in bytes
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	Target       Target
	FileID       string // Drive file ID or object key
	FileName     string // Name of the uploaded file
	Location     string // bucket/key or Drive folder
	ShareableURL string // URL for sharing the file, empty when the target has none
	Size         int64  // Size of the uploaded file in bytes
}

// Uploader is a port implemented once per Target
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
