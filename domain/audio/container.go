package audio

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// ContainerKind identifies the container layout of a source file
type ContainerKind int

const (
	// ContainerUnknown is a file whose layout was not recognised
	ContainerUnknown ContainerKind = iota

	// ContainerPCM is a RIFF/WAVE file with an exact byte-to-time mapping
	ContainerPCM

	// ContainerMPEG is an MPEG audio bitstream (MP3), optionally ID3-tagged
	ContainerMPEG
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerPCM:
		return "pcm"
	case ContainerMPEG:
		return "mpeg"
	default:
		return "unknown"
	}
}

// MimeType returns the MIME type used when distributing files of this kind
func (k ContainerKind) MimeType() string {
	switch k {
	case ContainerPCM:
		return "audio/wav"
	case ContainerMPEG:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// KindFromExtension maps a file extension to a ContainerKind.
// It is the fallback when the file signature is inconclusive.
func KindFromExtension(path string) ContainerKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return ContainerPCM
	case ".mp3", ".mp2", ".mpga":
		return ContainerMPEG
	default:
		return ContainerUnknown
	}
}

// PCMMetadata describes an uncompressed PCM stream
type PCMMetadata struct {
	ChannelCount     int
	SampleWidthBytes int
	SampleRateHz     int
	TotalFrameCount  int64
}

// Validate rejects headers that cannot describe a PCM stream
func (m PCMMetadata) Validate() error {
	if m.ChannelCount <= 0 {
		return HeaderErrorf("channel count is zero")
	}
	if m.SampleWidthBytes <= 0 {
		return HeaderErrorf("sample width is zero")
	}
	if m.SampleRateHz <= 0 {
		return HeaderErrorf("sample rate is zero")
	}
	return nil
}

// FrameSize returns the number of bytes per sample frame
func (m PCMMetadata) FrameSize() int {
	return m.ChannelCount * m.SampleWidthBytes
}

// Duration returns the exact stream duration
func (m PCMMetadata) Duration() time.Duration {
	if m.SampleRateHz <= 0 {
		return 0
	}
	return time.Duration(m.TotalFrameCount) * time.Second / time.Duration(m.SampleRateHz)
}

// FrameIndex converts a time offset to the nearest sample frame index
func (m PCMMetadata) FrameIndex(d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(m.SampleRateHz)))
}

func (m PCMMetadata) String() string {
	return fmt.Sprintf("pcm: %d ch, %d-bit, %d Hz, %d frames (%s)",
		m.ChannelCount, m.SampleWidthBytes*8, m.SampleRateHz, m.TotalFrameCount, FormatDuration(m.Duration()))
}

// BitstreamMetadata describes a compressed bitstream file
type BitstreamMetadata struct {
	Duration      time.Duration
	FileSizeBytes int64

	// BitrateBPS is the embedded average bitrate in bits per second, zero when unknown
	BitrateBPS int
}

// Validate rejects metadata that cannot be used for byte estimation
func (m BitstreamMetadata) Validate() error {
	if m.Duration <= 0 {
		return HeaderErrorf("stream duration is zero")
	}
	if m.FileSizeBytes <= 0 {
		return HeaderErrorf("file is empty")
	}
	return nil
}

// BytesPerSecond returns the whole-file average data rate
func (m BitstreamMetadata) BytesPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}
	return float64(m.FileSizeBytes) / m.Duration.Seconds()
}

// AverageBitrate returns the embedded bitrate, or one derived from size and duration
func (m BitstreamMetadata) AverageBitrate() int {
	if m.BitrateBPS > 0 {
		return m.BitrateBPS
	}
	return int(m.BytesPerSecond() * 8)
}

func (m BitstreamMetadata) String() string {
	return fmt.Sprintf("mpeg: %s, %d bytes, ~%d kbps",
		FormatDuration(m.Duration), m.FileSizeBytes, m.AverageBitrate()/1000)
}
