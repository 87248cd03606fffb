package mpeg

import (
	"context"
	"fmt"
	"io"
	"math"

	"audiocut/domain/audio"
	"audiocut/infrastructure/filesystem"
)

// Cutter implements audio.Cutter for MPEG audio bitstreams.
//
// Byte offsets are estimated from the whole-file average data rate, so the
// cut is approximate for VBR streams and for files with large tags. The start
// offset is moved forward to the next frame sync when one is close by; the
// end offset is left where the estimate puts it.
type Cutter struct {
	prober    BitstreamProber
	lookahead int
}

// CutterOption configures a Cutter
type CutterOption func(*Cutter)

// WithProber sets the metadata source used for byte estimation
func WithProber(p BitstreamProber) CutterOption {
	return func(c *Cutter) {
		c.prober = p
	}
}

// WithLookahead sets how many bytes past the estimated start are searched for a frame sync
func WithLookahead(n int) CutterOption {
	return func(c *Cutter) {
		c.lookahead = n
	}
}

// NewCutter creates a new bitstream cutter
func NewCutter(opts ...CutterOption) *Cutter {
	c := &Cutter{
		prober:    NewFrameProber(),
		lookahead: DefaultLookahead,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe implements audio.Prober
func (c *Cutter) Probe(ctx context.Context, path string) (audio.ContainerMetadata, error) {
	meta, err := c.prober.ProbeBitstream(ctx, path)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// Cut implements audio.Cutter
func (c *Cutter) Cut(ctx context.Context, req *audio.CutRequest, w io.Writer) (*audio.CutStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := c.prober.ProbeBitstream(ctx, req.SourcePath)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	f, size, err := filesystem.OpenSource(req.SourcePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := req.Range.Clamp(meta.Duration)
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s is outside a %s stream",
			audio.ErrInvalidRange, req.Range, audio.FormatDuration(meta.Duration))
	}

	bps := meta.BytesPerSecond()
	startByte := int64(math.Floor(r.Start.Seconds() * bps))
	endByte := int64(math.Floor(r.End.Seconds() * bps))
	if endByte > size {
		endByte = size
	}

	realStart, err := Realign(f, startByte, endByte, c.lookahead)
	if err != nil {
		return nil, err
	}

	length := endByte - realStart
	if length <= 0 {
		return nil, fmt.Errorf("%w: %s selects no bytes of a %d byte file",
			audio.ErrInvalidRange, req.Range, size)
	}

	stats := &audio.CutStats{
		Range:           r,
		SourceOffset:    realStart,
		EstimatedOffset: startByte,
		SourceLength:    length,
	}

	copied, err := io.CopyN(w, io.NewSectionReader(f, realStart, length), length)
	stats.BytesWritten = copied
	if err != nil {
		return stats, audio.IOErrorf(err, "copying bytes %d-%d", realStart, endByte)
	}

	return stats, nil
}

// Ensure Cutter implements audio.Cutter
var _ audio.Cutter = (*Cutter)(nil)
