package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiocut/domain/audio"
	"audiocut/domain/distribution"
	"audiocut/infrastructure/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	uploadFilePath string
	uploadTarget   string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a cut to Google Drive or MinIO",
	Long: `Upload a finished cut to Google Drive or an S3-compatible MinIO bucket.

By default the output of the most recent cut is uploaded. When no cut has
been recorded yet, the newest *_cut file in the downloads directory is used.

Drive uploads go to google.folder_id, replace a file with the same name and
are shared with "anyone with the link". MinIO uploads go to
<bucket>/cuts/<name> and print a presigned link valid for seven days.

Example:
  audiocut upload --target drive
  audiocut upload --file ~/Downloads/interview_cut.wav --target minio`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFilePath, "file", "", "File to upload (defaults to the last cut)")
	uploadCmd.Flags().StringVar(&uploadTarget, "target", string(distribution.TargetDrive), "Upload target: drive or minio")
}

// UploadRunner sends a local file to an upload target
type UploadRunner interface {
	Upload(ctx context.Context, target distribution.Target, localPath string) (*distribution.UploadResult, error)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	target, err := distribution.ParseTarget(uploadTarget)
	if err != nil {
		return err
	}

	store := GetStateStore()
	filePath := uploadFilePath
	if filePath == "" {
		filePath = store.Load().LastOutput
	}
	if filePath == "" {
		filePath, err = findLatestCut(cfg.Paths.DownloadDirectory, cfg.Output.Suffix)
		if err != nil {
			return fmt.Errorf("no file specified and no previous cut found: %w", err)
		}
	}

	ctx := cmd.Context()
	service, err := newUploadService(ctx, cfg, target, GetLogger(), DefaultOutput)
	if err != nil {
		return err
	}

	_, err = RunUploadWithDependencies(ctx, service, store, target, filePath, DefaultOutput)
	return err
}

// findLatestCut finds the most recently modified cut in dir
func findLatestCut(dir, suffix string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("download directory is not configured")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var latestPath string
	var latestTime time.Time

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if audio.KindFromExtension(name) == audio.ContainerUnknown {
			continue
		}
		if !strings.HasSuffix(strings.TrimSuffix(name, ext), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestPath = filepath.Join(dir, name)
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("no *%s audio files found in %s", suffix, dir)
	}

	return latestPath, nil
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	uploader UploadRunner,
	store StateStore,
	target distribution.Target,
	filePath string,
	output OutputWriter,
) (*distribution.UploadResult, error) {
	result, err := uploader.Upload(ctx, target, filePath)
	if err != nil {
		return nil, fmt.Errorf("%s upload failed: %w", target, err)
	}

	if abs, err := filepath.Abs(filePath); err == nil {
		if err := store.Update(func(st *state.State) { st.LastOutput = abs }); err != nil {
			GetLogger().Warn("could not save state", zap.Error(err))
		}
	}

	if result.Location != "" {
		fmt.Fprintf(output, "      Location: %s\n", result.Location)
	}
	return result, nil
}
