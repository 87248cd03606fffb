package wav

import (
	"context"
	"fmt"
	"io"

	"audiocut/domain/audio"
	"audiocut/infrastructure/filesystem"
)

// Cutter implements audio.Cutter for RIFF/WAVE files with sample accuracy
type Cutter struct{}

// NewCutter creates a new PCM cutter
func NewCutter() *Cutter {
	return &Cutter{}
}

// Probe implements audio.Prober
func (c *Cutter) Probe(ctx context.Context, path string) (audio.ContainerMetadata, error) {
	h, err := probe(path)
	if err != nil {
		return nil, err
	}
	return h.PCMMetadata, nil
}

func probe(path string) (*Header, error) {
	f, size, err := filesystem.OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadHeader(f, size)
}

// Cut implements audio.Cutter.
//
// The range is converted to frame indices by rounding, the end is clamped to
// the stream length, and the selected frames are copied without conversion
// behind a header carrying the source fmt chunk unchanged.
func (c *Cutter) Cut(ctx context.Context, req *audio.CutRequest, w io.Writer) (*audio.CutStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, size, err := filesystem.OpenSource(req.SourcePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := ReadHeader(f, size)
	if err != nil {
		return nil, err
	}

	r := req.Range.Clamp(h.Duration())
	startFrame := h.FrameIndex(r.Start)
	endFrame := h.FrameIndex(r.End)
	if endFrame > h.TotalFrameCount {
		endFrame = h.TotalFrameCount
	}
	if startFrame >= endFrame {
		return nil, fmt.Errorf("%w: %s selects no frames of a %s stream",
			audio.ErrInvalidRange, req.Range, audio.FormatDuration(h.Duration()))
	}

	frameSize := int64(h.FrameSize())
	offset := h.DataOffset + startFrame*frameSize
	length := (endFrame - startFrame) * frameSize

	stats := &audio.CutStats{
		Range:           r,
		SourceOffset:    offset,
		EstimatedOffset: offset,
		SourceLength:    length,
	}

	n, err := WriteHeader(w, h.FormatChunk, length)
	stats.BytesWritten += n
	if err != nil {
		return stats, audio.IOErrorf(err, "writing header")
	}

	copied, err := io.CopyN(w, io.NewSectionReader(f, offset, length), length)
	stats.BytesWritten += copied
	if err != nil {
		return stats, audio.IOErrorf(err, "copying %d frames", endFrame-startFrame)
	}

	if length%2 == 1 {
		if _, err := w.Write([]byte{0}); err != nil {
			return stats, audio.IOErrorf(err, "writing pad byte")
		}
		stats.BytesWritten++
	}

	return stats, nil
}

// Ensure Cutter implements audio.Cutter
var _ audio.Cutter = (*Cutter)(nil)
