package distribution

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"audiocut/domain/audio"
	"audiocut/domain/distribution"

	"go.uber.org/zap"
)

// DriveUploader implements distribution.Uploader on top of a DriveClient.
// An existing file of the same name in the folder is replaced.
type DriveUploader struct {
	driveClient distribution.DriveClient
	folderID    string
	output      io.Writer
}

// NewDriveUploader creates a new Drive uploader
func NewDriveUploader(client distribution.DriveClient, folderID string, output io.Writer) *DriveUploader {
	if output == nil {
		output = io.Discard
	}
	return &DriveUploader{
		driveClient: client,
		folderID:    folderID,
		output:      output,
	}
}

// Upload implements distribution.Uploader
func (u *DriveUploader) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	quota, err := u.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check Drive storage: %w", err)
	}

	existing, err := u.driveClient.FindFileByName(ctx, u.folderID, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}

	needed := req.Size
	if existing != nil {
		needed -= existing.Size
	}
	if !quota.HasSpaceFor(needed) {
		return nil, fmt.Errorf("%w: %s needs %.1f MB, %.1f MB available on Drive", distribution.ErrInsufficientStorage,
			req.FileName, float64(needed)/1024/1024, float64(quota.AvailableBytes)/1024/1024)
	}

	if existing != nil {
		fmt.Fprintf(u.output, "      Replacing existing %s (%.1f MB)\n", existing.Name, float64(existing.Size)/1024/1024)
		if err := u.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	result, err := u.driveClient.UploadAndShare(ctx, u.folderID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", req.FileName, err)
	}

	return result, nil
}

// UploadService sends finished cuts to the configured targets
type UploadService struct {
	uploaders map[distribution.Target]distribution.Uploader
	logger    *zap.Logger
	output    io.Writer
}

// NewUploadService creates a new upload service
func NewUploadService(uploaders map[distribution.Target]distribution.Uploader, logger *zap.Logger, output io.Writer) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		uploaders: uploaders,
		logger:    logger,
		output:    output,
	}
}

// Upload sends the file at localPath to target
func (s *UploadService) Upload(ctx context.Context, target distribution.Target, localPath string) (*distribution.UploadResult, error) {
	uploader, ok := s.uploaders[target]
	if !ok {
		return nil, fmt.Errorf("%w: %q", distribution.ErrNotConfigured, target)
	}

	info, err := os.Stat(localPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", localPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", localPath)
	}

	req := distribution.UploadRequest{
		LocalPath: localPath,
		FileName:  filepath.Base(localPath),
		MimeType:  audio.KindFromExtension(localPath).MimeType(),
		Size:      info.Size(),
	}

	fmt.Fprintf(s.output, "Uploading %s to %s...\n", req.FileName, target)
	result, err := uploader.Upload(ctx, req)
	if err != nil {
		s.logger.Error("upload failed", zap.String("target", string(target)), zap.String("file", localPath), zap.Error(err))
		return nil, err
	}

	s.logger.Info("upload complete",
		zap.String("target", string(target)),
		zap.String("file", localPath),
		zap.String("location", result.Location),
		zap.Int64("size", result.Size),
	)
	fmt.Fprintf(s.output, "      Uploaded: %s\n", req.FileName)
	if result.ShareableURL != "" {
		fmt.Fprintf(s.output, "      Link: %s\n", result.ShareableURL)
	}

	return result, nil
}

// Ensure DriveUploader implements distribution.Uploader
var _ distribution.Uploader = (*DriveUploader)(nil)
