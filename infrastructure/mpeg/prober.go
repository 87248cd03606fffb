package mpeg

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"audiocut/domain/audio"
	"audiocut/infrastructure/filesystem"

	"github.com/tcolgate/mp3"
)

// BitstreamProber reads the metadata needed for byte estimation
type BitstreamProber interface {
	ProbeBitstream(ctx context.Context, path string) (audio.BitstreamMetadata, error)
}

// FrameProber walks every MPEG frame of a file to measure its duration.
// Summing frame durations is exact for both CBR and VBR streams.
type FrameProber struct{}

// NewFrameProber creates a new FrameProber
func NewFrameProber() *FrameProber {
	return &FrameProber{}
}

// ProbeBitstream implements BitstreamProber
func (p *FrameProber) ProbeBitstream(ctx context.Context, path string) (audio.BitstreamMetadata, error) {
	f, size, err := filesystem.OpenSource(path)
	if err != nil {
		return audio.BitstreamMetadata{}, err
	}
	defer f.Close()

	if _, err := SkipID3v2(f); err != nil {
		return audio.BitstreamMetadata{}, err
	}

	duration, audioBytes, err := scanFrames(f)
	if err != nil {
		return audio.BitstreamMetadata{}, err
	}

	meta := audio.BitstreamMetadata{
		Duration:      duration,
		FileSizeBytes: size,
	}
	if duration > 0 {
		meta.BitrateBPS = int(float64(audioBytes*8) / duration.Seconds())
	}

	return meta, meta.Validate()
}

// id3v2HeaderLen is the fixed size of an ID3v2 header and of its optional footer
const id3v2HeaderLen = 10

// SkipID3v2 positions r after a leading ID3v2 tag and returns the tag length.
// Without a tag r is rewound to the start and 0 is returned.
func SkipID3v2(r io.ReadSeeker) (int64, error) {
	var h [id3v2HeaderLen]byte
	n, err := io.ReadFull(r, h[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, audio.IOErrorf(err, "reading ID3v2 header")
	}

	size, ok := id3v2Size(h[:n])
	if !ok {
		size = 0
	}
	if _, err := r.Seek(size, io.SeekStart); err != nil {
		return 0, audio.IOErrorf(err, "skipping ID3v2 tag")
	}
	return size, nil
}

// id3v2Size returns the total length of the tag whose header is h,
// header and footer included
func id3v2Size(h []byte) (int64, bool) {
	if len(h) < id3v2HeaderLen || string(h[0:3]) != "ID3" || h[3] == 0xFF || h[4] == 0xFF {
		return 0, false
	}
	var size int64
	for _, b := range h[6:10] {
		if b&0x80 != 0 {
			return 0, false
		}
		size = size<<7 | int64(b)
	}
	size += id3v2HeaderLen
	if h[5]&0x10 != 0 {
		size += id3v2HeaderLen
	}
	return size, true
}

func scanFrames(r io.Reader) (time.Duration, int64, error) {
	d := mp3.NewDecoder(bufio.NewReader(r))

	var (
		frame    mp3.Frame
		skipped  int
		frames   int
		duration time.Duration
		size     int64
	)

	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			// trailing junk after valid audio, such as an ID3v1 tag
			if frames > 0 {
				break
			}
			return 0, 0, audio.HeaderErrorf("no MPEG audio frames: %v", err)
		}
		frames++
		duration += frame.Duration()
		size += int64(frame.Size())
	}

	if frames == 0 {
		return 0, 0, audio.HeaderErrorf("no MPEG audio frames")
	}
	return duration, size, nil
}

// Ensure FrameProber implements BitstreamProber
var _ BitstreamProber = (*FrameProber)(nil)
