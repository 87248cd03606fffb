package audio

import (
	"context"
	"io"
	"time"
)

// ContainerMetadata is the probed structure of a source file.
// It is built once per cut and never mutated.
type ContainerMetadata interface {
	Kind() ContainerKind
	TotalDuration() time.Duration
	String() string
}

func (m PCMMetadata) Kind() ContainerKind          { return ContainerPCM }
func (m PCMMetadata) TotalDuration() time.Duration { return m.Duration() }

func (m BitstreamMetadata) Kind() ContainerKind          { return ContainerMPEG }
func (m BitstreamMetadata) TotalDuration() time.Duration { return m.Duration }

// Prober reads container metadata from a file
type Prober interface {
	Probe(ctx context.Context, path string) (ContainerMetadata, error)
}

// Cutter extracts a time range from one container kind.
// This is a port implemented once per ContainerKind.
type Cutter interface {
	Prober

	// Cut reads req.Range from req.SourcePath and writes the new file to w
	Cut(ctx context.Context, req *CutRequest, w io.Writer) (*CutStats, error)
}

// CutStats describes what a cutter actually copied
type CutStats struct {
	// Range is the requested range after clamping to the probed duration
	Range TimeRange

	// SourceOffset and SourceLength locate the copied bytes in the source
	SourceOffset int64
	SourceLength int64

	// EstimatedOffset is the pre-realignment start offset (bitstream only)
	EstimatedOffset int64

	BytesWritten int64
}

// Realigned reports whether the start offset moved during frame-sync search
func (s *CutStats) Realigned() bool {
	return s.SourceOffset != s.EstimatedOffset
}

// Detector identifies the container kind of a file
type Detector interface {
	Detect(path string) (ContainerKind, error)
}

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}

// OutputFile is a destination being written by a cut.
// Exactly one of Commit or Abort must be called.
type OutputFile interface {
	io.Writer
	Commit() error
	Abort() error
}

// OutputCreator opens output files
type OutputCreator interface {
	Create(path string) (OutputFile, error)
}
