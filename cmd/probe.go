package cmd

import (
	"context"
	"fmt"

	"audiocut/domain/audio"
	"audiocut/infrastructure/container"

	"github.com/spf13/cobra"
)

var probeSourcePath string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show the container metadata of an audio file",
	Long: `Print what audiocut reads from a source before cutting it: the container
kind, its duration, and either the PCM layout (channels, sample width, rate,
frames) or the MPEG stream size and average bitrate. Embedded tags are shown
when present.

Example:
  audiocut probe --source podcast.mp3`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&probeSourcePath, "source", "", "Path to source audio file (required)")
	probeCmd.MarkFlagRequired("source")
}

// MetadataProber reads container metadata
type MetadataProber interface {
	Probe(ctx context.Context, sourcePath string) (audio.ContainerMetadata, error)
}

// TagReader reads embedded descriptive tags
type TagReader func(path string) (container.Tags, error)

func runProbe(cmd *cobra.Command, args []string) error {
	service := newCutService(GetConfig(), GetLogger(), DefaultOutput)
	return RunProbeWithDependencies(cmd.Context(), service, container.ReadTags, probeSourcePath, DefaultOutput)
}

// RunProbeWithDependencies runs the probe command with injected dependencies (for testing)
func RunProbeWithDependencies(
	ctx context.Context,
	prober MetadataProber,
	readTags TagReader,
	sourcePath string,
	output OutputWriter,
) error {
	meta, err := prober.Probe(ctx, sourcePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "File:     %s\n", sourcePath)
	fmt.Fprintf(output, "Format:   %s\n", meta.Kind())
	fmt.Fprintf(output, "Duration: %s\n", audio.FormatDuration(meta.TotalDuration()))
	fmt.Fprintf(output, "Details:  %s\n", meta)

	if readTags == nil {
		return nil
	}
	tags, err := readTags(sourcePath)
	if err != nil || tags.Empty() {
		// Tags are informational only
		return nil
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Tags (%s):\n", tags.Format)
	if tags.Title != "" {
		fmt.Fprintf(output, "  Title:  %s\n", tags.Title)
	}
	if tags.Artist != "" {
		fmt.Fprintf(output, "  Artist: %s\n", tags.Artist)
	}
	if tags.Album != "" {
		fmt.Fprintf(output, "  Album:  %s\n", tags.Album)
	}
	if tags.Year != 0 {
		fmt.Fprintf(output, "  Year:   %d\n", tags.Year)
	}
	return nil
}
