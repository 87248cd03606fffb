package cut

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"audiocut/domain/audio"
	"audiocut/infrastructure/filesystem"

	"go.uber.org/zap"
)

// Service routes a cut to the cutter for the source's container kind
type Service struct {
	cutters     map[audio.ContainerKind]audio.Cutter
	detector    audio.Detector
	fileChecker audio.FileChecker
	outputs     audio.OutputCreator
	downloadDir string
	suffix      string
	logger      *zap.Logger
	output      io.Writer
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithDownloadDir sets the preferred output directory when no target is given
func WithDownloadDir(dir string) ServiceOption {
	return func(s *Service) {
		s.downloadDir = dir
	}
}

// WithSuffix sets the suffix appended to the source stem
func WithSuffix(suffix string) ServiceOption {
	return func(s *Service) {
		s.suffix = suffix
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOutput sets where progress messages are written
func WithOutput(w io.Writer) ServiceOption {
	return func(s *Service) {
		s.output = w
	}
}

// NewService creates a new cut service
func NewService(
	cutters map[audio.ContainerKind]audio.Cutter,
	detector audio.Detector,
	fileChecker audio.FileChecker,
	outputs audio.OutputCreator,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		cutters:     cutters,
		detector:    detector,
		fileChecker: fileChecker,
		outputs:     outputs,
		suffix:      audio.DefaultCutSuffix,
		logger:      zap.NewNop(),
		output:      io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input contains the parameters of one cut
type Input struct {
	SourcePath string // Source audio file
	Range      string // Range string, e.g. "0:30-1:30"
	Target     string // Output directory or file (optional)
}

// Result describes a completed cut
type Result struct {
	OutputPath string
	Kind       audio.ContainerKind
	Stats      *audio.CutStats
}

// Cut parses the range, picks a cutter by container kind and writes the new file.
// The range is parsed before any file is touched, and nothing is created
// unless the source is a supported container.
func (s *Service) Cut(ctx context.Context, input Input) (*Result, error) {
	r, err := audio.ParseRange(input.Range)
	if err != nil {
		return nil, err
	}

	source, kind, cutter, err := s.resolveSource(input.SourcePath)
	if err != nil {
		return nil, err
	}

	outputPath, err := s.ResolveOutputPath(source, input.Target)
	if err != nil {
		return nil, err
	}

	req, err := audio.NewCutRequest(source, r, outputPath)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(
		zap.String("source", source),
		zap.String("output", outputPath),
		zap.Stringer("kind", kind),
		zap.Stringer("range", r),
	)
	log.Debug("starting cut")

	fmt.Fprintf(s.output, "Cutting %s (%s) %s...\n", filepath.Base(source), kind, r)

	out, err := s.outputs.Create(outputPath)
	if err != nil {
		return nil, err
	}

	stats, err := cutter.Cut(ctx, req, out)
	if err != nil {
		if abortErr := out.Abort(); abortErr != nil {
			log.Warn("failed to remove partial output", zap.Error(abortErr))
		}
		log.Error("cut failed", zap.Error(err), zap.String("kind_of_error", string(audio.KindOf(err))))
		return nil, err
	}

	if err := out.Commit(); err != nil {
		log.Error("commit failed", zap.Error(err))
		return nil, err
	}

	log.Info("cut complete",
		zap.Int64("source_offset", stats.SourceOffset),
		zap.Int64("source_length", stats.SourceLength),
		zap.Bool("realigned", stats.Realigned()),
		zap.Int64("bytes_written", stats.BytesWritten),
	)
	fmt.Fprintf(s.output, "Created: %s\n", outputPath)

	return &Result{
		OutputPath: outputPath,
		Kind:       kind,
		Stats:      stats,
	}, nil
}

// Probe returns the container metadata of a source file
func (s *Service) Probe(ctx context.Context, sourcePath string) (audio.ContainerMetadata, error) {
	source, _, cutter, err := s.resolveSource(sourcePath)
	if err != nil {
		return nil, err
	}
	return cutter.Probe(ctx, source)
}

func (s *Service) resolveSource(sourcePath string) (string, audio.ContainerKind, audio.Cutter, error) {
	if sourcePath == "" {
		return "", audio.ContainerUnknown, nil, fmt.Errorf("%w: no source file given", audio.ErrFileNotFound)
	}

	source, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", audio.ContainerUnknown, nil, audio.IOErrorf(err, "resolving %s", sourcePath)
	}

	if !s.fileChecker.Exists(source) {
		return "", audio.ContainerUnknown, nil, fmt.Errorf("%w: %s", audio.ErrFileNotFound, source)
	}

	kind, err := s.detector.Detect(source)
	if err != nil {
		return "", audio.ContainerUnknown, nil, err
	}

	cutter, ok := s.cutters[kind]
	if !ok {
		return "", kind, nil, fmt.Errorf("%w: no cutter for %s containers", audio.ErrUnsupportedFormat, kind)
	}

	return source, kind, cutter, nil
}

// ResolveOutputPath returns the absolute output path for a cut of source.
//
// target may name a directory (existing, or ending in a path separator) that
// receives "<stem><suffix><ext>", or a full file path. With no target the
// download directory is used when it is writable, else the source's directory.
func (s *Service) ResolveOutputPath(source, target string) (string, error) {
	name := audio.OutputFilename(source, s.suffix)

	var path string
	switch {
	case target == "":
		path = filepath.Join(filesystem.DefaultOutputDir(s.downloadDir, source), name)
	case filesystem.IsDir(target) || strings.HasSuffix(target, string(os.PathSeparator)) || strings.HasSuffix(target, "/"):
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", audio.IOErrorf(err, "creating output directory %s", target)
		}
		path = filepath.Join(target, name)
	default:
		path = target
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", audio.IOErrorf(err, "resolving %s", path)
	}
	return abs, nil
}
