package container

import (
	"bytes"
	"fmt"
	"io"

	"audiocut/domain/audio"
	"audiocut/infrastructure/filesystem"
	"audiocut/infrastructure/mpeg"
	"audiocut/infrastructure/wav"

	"github.com/dhowden/tag"
)

const sniffLen = 12

// containers that are recognised but need a decoder to cut
var undecodable = []struct {
	name  string
	match func(b []byte) bool
}{
	{"FLAC", func(b []byte) bool { return bytes.HasPrefix(b, []byte("fLaC")) }},
	{"Ogg", func(b []byte) bool { return bytes.HasPrefix(b, []byte("OggS")) }},
	{"AAC ADTS", func(b []byte) bool { return len(b) >= 2 && b[0] == 0xFF && b[1]&0xF6 == 0xF0 }},
	{"MP4/M4A", func(b []byte) bool { return len(b) >= 8 && string(b[4:8]) == "ftyp" }},
	{"ASF/WMA", func(b []byte) bool { return bytes.HasPrefix(b, []byte{0x30, 0x26, 0xB2, 0x75}) }},
	{"AIFF", func(b []byte) bool { return len(b) >= 12 && string(b[0:4]) == "FORM" && string(b[8:11]) == "AIF" }},
	{"RIFF", func(b []byte) bool { return bytes.HasPrefix(b, []byte("RIFF")) }},
}

// Detector identifies containers by signature, falling back to the file extension
type Detector struct{}

// NewDetector creates a new Detector
func NewDetector() *Detector {
	return &Detector{}
}

// Detect implements audio.Detector
func (d *Detector) Detect(path string) (audio.ContainerKind, error) {
	f, _, err := filesystem.OpenSource(path)
	if err != nil {
		return audio.ContainerUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return audio.ContainerUnknown, audio.IOErrorf(err, "reading %s", path)
	}
	head = head[:n]

	if kind := sniff(head); kind != audio.ContainerUnknown {
		return kind, nil
	}
	for _, u := range undecodable {
		if u.match(head) {
			return audio.ContainerUnknown, fmt.Errorf("%w: %s container needs a decoder", audio.ErrUnsupportedFormat, u.name)
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if _, fileType, err := tag.Identify(f); err == nil {
			switch fileType {
			case tag.MP3:
				// ID3v1 trailer on an otherwise headerless stream
				return audio.ContainerMPEG, nil
			case tag.UnknownFileType:
			default:
				return audio.ContainerUnknown, fmt.Errorf("%w: %s container needs a decoder", audio.ErrUnsupportedFormat, fileType)
			}
		}
	}

	if kind := audio.KindFromExtension(path); kind != audio.ContainerUnknown {
		return kind, nil
	}
	return audio.ContainerUnknown, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, path)
}

func sniff(head []byte) audio.ContainerKind {
	switch {
	case wav.IsWAVE(head):
		return audio.ContainerPCM
	case bytes.HasPrefix(head, []byte("ID3")):
		return audio.ContainerMPEG
	case len(head) >= 2 && mpeg.IsFrameHeader(head[0], head[1]):
		return audio.ContainerMPEG
	}
	return audio.ContainerUnknown
}

// Ensure Detector implements audio.Detector
var _ audio.Detector = (*Detector)(nil)
