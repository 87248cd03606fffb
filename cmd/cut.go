package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	appcut "audiocut/application/cut"
	"audiocut/domain/audio"
	"audiocut/domain/distribution"
	"audiocut/infrastructure/filesystem"
	"audiocut/infrastructure/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// maxRangeAttempts bounds how often an interactive range is re-asked
const maxRangeAttempts = 3

const rangeHint = `Ranges look like "0:30-1:30" (minutes:seconds), "0-1.5" (minutes) or "90s-120s" (seconds)`

var (
	cutSourcePath  string
	cutRange       string
	cutOutput      string
	cutUpload      string
	cutInteractive bool
)

var cutCmd = &cobra.Command{
	Use:   "cut",
	Short: "Cut a time range out of a WAV or MP3 file",
	Long: `Cut the given time range out of an audio file and save it as a new file.

WAV files are cut on exact sample frames. MP3 files are cut on byte offsets
estimated from the average bitrate, with the start moved forward to the next
frame boundary.

The output is named <name>_cut<ext> and written to --output when given,
otherwise to the configured downloads directory, otherwise next to the source.
Without --source the file from the previous cut is used again.

Examples:
  audiocut cut --source interview.wav --range "0:30-1:30"
  audiocut cut --source podcast.mp3 --range "90s-120s" --output ~/clips/
  audiocut cut --interactive
  audiocut cut --source talk.mp3 --range "0-1" --upload drive`,
	RunE: runCut,
}

func init() {
	rootCmd.AddCommand(cutCmd)
	cutCmd.Flags().StringVar(&cutSourcePath, "source", "", "Path to source audio file (default: the previous source)")
	cutCmd.Flags().StringVar(&cutRange, "range", "", `Time range to keep, e.g. "0:30-1:30"`)
	cutCmd.Flags().StringVar(&cutOutput, "output", "", "Output directory or file (default: downloads directory)")
	cutCmd.Flags().StringVar(&cutUpload, "upload", "", "Upload the cut afterwards (drive or minio)")
	cutCmd.Flags().BoolVarP(&cutInteractive, "interactive", "i", false, "Prompt for the source and range")
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// CutRunner performs a single cut
type CutRunner interface {
	Cut(ctx context.Context, input appcut.Input) (*appcut.Result, error)
}

// StateStore remembers the files of the previous run
type StateStore interface {
	Load() state.State
	Update(fn func(*state.State)) error
}

// CutOptions holds the flag values of one cut invocation
type CutOptions struct {
	SourcePath  string
	Range       string
	Output      string
	Interactive bool
}

func runCut(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	var target distribution.Target
	if cutUpload != "" {
		t, err := distribution.ParseTarget(cutUpload)
		if err != nil {
			return err
		}
		target = t
	}

	store := GetStateStore()
	service := newCutService(cfg, GetLogger(), DefaultOutput)

	result, err := RunCutWithDependencies(
		cmd.Context(),
		service,
		filesystem.NewChecker(),
		DefaultPrompter,
		store,
		CutOptions{
			SourcePath:  cutSourcePath,
			Range:       cutRange,
			Output:      cutOutput,
			Interactive: cutInteractive,
		},
		DefaultOutput,
	)
	if err != nil {
		return err
	}

	if target == "" {
		return nil
	}

	uploads, err := newUploadService(cmd.Context(), cfg, target, GetLogger(), DefaultOutput)
	if err != nil {
		return fmt.Errorf("cut saved to %s but upload is not possible: %w", result.OutputPath, err)
	}
	_, err = RunUploadWithDependencies(cmd.Context(), uploads, store, target, result.OutputPath, DefaultOutput)
	return err
}

// RunCutWithDependencies runs the cut command with injected dependencies (for testing)
func RunCutWithDependencies(
	ctx context.Context,
	cutter CutRunner,
	fileChecker audio.FileChecker,
	prompter Prompter,
	store StateStore,
	opts CutOptions,
	output OutputWriter,
) (*appcut.Result, error) {
	last := store.Load()
	sourcePath, rangeStr := opts.SourcePath, opts.Range

	if opts.Interactive {
		var err error
		sourcePath, rangeStr, err = promptCut(prompter, sourcePath, rangeStr, last.LastSource, output)
		if err != nil {
			return nil, err
		}
	} else if sourcePath == "" {
		if last.LastSource == "" || !fileChecker.Exists(last.LastSource) {
			return nil, fmt.Errorf("--source is required (no previous source to reuse)")
		}
		sourcePath = last.LastSource
		fmt.Fprintf(output, "Using previous source: %s\n", sourcePath)
	}

	if strings.TrimSpace(rangeStr) == "" {
		return nil, fmt.Errorf("--range is required\n\n%s", rangeHint)
	}

	result, err := cutter.Cut(ctx, appcut.Input{
		SourcePath: sourcePath,
		Range:      rangeStr,
		Target:     opts.Output,
	})
	if err != nil {
		if audio.KindOf(err) == audio.KindInvalidRange {
			return nil, fmt.Errorf("%w\n\n%s", err, rangeHint)
		}
		return nil, err
	}

	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		absSource = sourcePath
	}
	if err := store.Update(func(st *state.State) {
		st.LastSource = absSource
		st.LastOutput = result.OutputPath
	}); err != nil {
		GetLogger().Warn("could not save state", zap.Error(err))
	}

	printCutSummary(output, result)
	return result, nil
}

func promptCut(prompter Prompter, sourcePath, rangeStr, lastSource string, output OutputWriter) (string, string, error) {
	defaultSource := sourcePath
	if defaultSource == "" {
		defaultSource = lastSource
	}

	source, err := prompter.Input("Audio file to cut?", defaultSource)
	if err != nil {
		return "", "", fmt.Errorf("prompt cancelled")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return "", "", fmt.Errorf("source file is required")
	}

	for attempt := 1; ; attempt++ {
		r, err := prompter.Input(`Range to keep (e.g. "0:30-1:30")?`, rangeStr)
		if err != nil {
			return "", "", fmt.Errorf("prompt cancelled")
		}
		_, parseErr := audio.ParseRange(r)
		if parseErr == nil {
			return source, r, nil
		}
		if attempt >= maxRangeAttempts {
			return "", "", fmt.Errorf("%w\n\n%s", parseErr, rangeHint)
		}
		fmt.Fprintf(output, "Invalid range: %v\n", parseErr)
	}
}

func printCutSummary(output OutputWriter, result *appcut.Result) {
	stats := result.Stats
	if stats == nil {
		return
	}
	fmt.Fprintf(output, "      Format: %s\n", result.Kind)
	fmt.Fprintf(output, "      Range:  %s\n", stats.Range)
	fmt.Fprintf(output, "      Size:   %d bytes\n", stats.BytesWritten)
	if stats.Realigned() {
		fmt.Fprintf(output, "      Start moved %d bytes to the next frame boundary\n", stats.SourceOffset-stats.EstimatedOffset)
	}
}
