package cmd

import (
	"context"
	"fmt"
	"io"

	appcut "audiocut/application/cut"
	appdist "audiocut/application/distribution"
	"audiocut/domain/audio"
	"audiocut/domain/distribution"
	"audiocut/infrastructure/config"
	"audiocut/infrastructure/container"
	"audiocut/infrastructure/drive"
	"audiocut/infrastructure/filesystem"
	"audiocut/infrastructure/mpeg"
	"audiocut/infrastructure/objectstore"
	"audiocut/infrastructure/wav"

	"go.uber.org/zap"
)

// newCutService wires the production cutters and filesystem adapters
func newCutService(cfg *config.Config, logger *zap.Logger, output io.Writer) *appcut.Service {
	cutters := map[audio.ContainerKind]audio.Cutter{
		audio.ContainerPCM:  wav.NewCutter(),
		audio.ContainerMPEG: mpeg.NewCutter(),
	}

	return appcut.NewService(
		cutters,
		container.NewDetector(),
		filesystem.NewChecker(),
		filesystem.NewOutputWriter(filesystem.WithAtomic(cfg.Output.Atomic)),
		appcut.WithDownloadDir(cfg.Paths.DownloadDirectory),
		appcut.WithSuffix(cfg.Output.Suffix),
		appcut.WithLogger(logger),
		appcut.WithOutput(output),
	)
}

// newUploadService builds an upload service holding only the requested target,
// so a Drive sign-in is never triggered for a MinIO upload
func newUploadService(ctx context.Context, cfg *config.Config, target distribution.Target, logger *zap.Logger, output io.Writer) (*appdist.UploadService, error) {
	var uploader distribution.Uploader

	switch target {
	case distribution.TargetDrive:
		if cfg.Google.FolderID == "" {
			return nil, fmt.Errorf("%w: google.folder_id is empty\n\n%s", distribution.ErrNotConfigured,
				config.SuggestSetCommand("google.folder_id", "<folder-id>"))
		}
		client, err := drive.NewClientFromCredentials(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create Drive client: %w", err)
		}
		uploader = appdist.NewDriveUploader(client, cfg.Google.FolderID, output)

	case distribution.TargetMinio:
		u, err := objectstore.NewUploader(objectstore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		uploader = u

	default:
		return nil, fmt.Errorf("%w: %q", distribution.ErrUnknownTarget, target)
	}

	return appdist.NewUploadService(map[distribution.Target]distribution.Uploader{target: uploader}, logger, output), nil
}
