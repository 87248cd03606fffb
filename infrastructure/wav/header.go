package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"audiocut/domain/audio"

	"github.com/go-audio/riff"
)

// WAVE format tags accepted as uncompressed PCM
const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatExtensible = 0xFFFE
)

// minFmtSize is the size of a WAVEFORMAT body without cbSize
const minFmtSize = 16

// Header is the parsed structure of a RIFF/WAVE file
type Header struct {
	audio.PCMMetadata

	// FormatTag is the wFormatTag of the fmt chunk
	FormatTag uint16

	// FormatChunk is the raw fmt chunk body, copied verbatim into cuts
	FormatChunk []byte

	// DataOffset is the absolute file offset of the first sample frame
	DataOffset int64

	// DataSize is the payload length in bytes, truncated to whole frames
	DataSize int64
}

// IsWAVE reports whether b starts with a RIFF/WAVE signature
func IsWAVE(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}

// ReadHeader walks the RIFF chunks of r until both the fmt and data chunks
// have been seen. fileSize bounds a data chunk whose declared size overruns
// the file, as left behind by interrupted recorders.
func ReadHeader(r io.ReadSeeker, fileSize int64) (*Header, error) {
	var sig [12]byte
	n, _ := io.ReadFull(r, sig[:])
	switch {
	case n >= 4 && string(sig[0:4]) != "RIFF", n == len(sig) && !IsWAVE(sig[:]):
		return nil, fmt.Errorf("%w: missing RIFF/WAVE signature", audio.ErrUnsupportedFormat)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, audio.IOErrorf(err, "rewinding")
	}

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil || p.Format != riff.WavFormatID {
		return nil, audio.HeaderErrorf("file too short for a RIFF header")
	}

	h := &Header{}
	pos := int64(12)
	haveFmt := false

	for {
		id, declared, err := p.IDnSize()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if !haveFmt {
					return nil, audio.HeaderErrorf("no fmt chunk")
				}
				return nil, audio.HeaderErrorf("no data chunk")
			}
			return nil, audio.IOErrorf(err, "reading chunk header")
		}
		pos += 8
		size := int64(declared)

		switch id {
		case riff.FmtID:
			if size < minFmtSize {
				return nil, audio.HeaderErrorf("fmt chunk is %d bytes", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, audio.HeaderErrorf("truncated fmt chunk")
			}
			if err := h.parseFormat(p, body); err != nil {
				return nil, err
			}
			haveFmt = true

		case riff.DataFormatID:
			if !haveFmt {
				return nil, audio.HeaderErrorf("data chunk before fmt chunk")
			}
			h.DataOffset = pos
			if avail := fileSize - pos; size > avail {
				size = avail
			}
			frameSize := int64(h.FrameSize())
			h.TotalFrameCount = size / frameSize
			h.DataSize = h.TotalFrameCount * frameSize
			return h, nil

		default:
			if _, err := r.Seek(size, io.SeekCurrent); err != nil {
				return nil, audio.IOErrorf(err, "skipping %q chunk", id[:])
			}
		}

		pos += size
		if size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return nil, audio.IOErrorf(err, "skipping pad byte")
			}
			pos++
		}
	}
}

// parseFormat decodes the fmt fields through the RIFF parser and keeps the
// raw body for the cut's header
func (h *Header) parseFormat(p *riff.Parser, body []byte) error {
	ch := &riff.Chunk{ID: riff.FmtID, Size: len(body), R: bytes.NewReader(body)}
	if err := ch.DecodeWavHeader(p); err != nil {
		return audio.HeaderErrorf("fmt chunk: %v", err)
	}

	switch p.WavAudioFormat {
	case formatPCM, formatIEEEFloat:
	case formatExtensible:
		// WAVEFORMATEXTENSIBLE: the sub-format GUID starts at offset 24
		if len(body) < 26 {
			return audio.HeaderErrorf("truncated WAVE_FORMAT_EXTENSIBLE chunk")
		}
		sub := binary.LittleEndian.Uint16(body[24:26])
		if sub != formatPCM && sub != formatIEEEFloat {
			return fmt.Errorf("%w: compressed WAVE sub-format 0x%04x", audio.ErrUnsupportedFormat, sub)
		}
	default:
		return fmt.Errorf("%w: compressed WAVE format 0x%04x", audio.ErrUnsupportedFormat, p.WavAudioFormat)
	}

	h.FormatTag = p.WavAudioFormat
	h.FormatChunk = append([]byte(nil), body...)
	h.ChannelCount = int(p.NumChannels)
	h.SampleWidthBytes = (int(p.BitsPerSample) + 7) / 8
	h.SampleRateHz = int(p.SampleRate)

	return h.PCMMetadata.Validate()
}

// WriteHeader writes a RIFF/WAVE header carrying formatChunk followed by the
// header of a data chunk of dataSize bytes. The caller writes the payload and,
// for odd sizes, one pad byte.
func WriteHeader(w io.Writer, formatChunk []byte, dataSize int64) (int64, error) {
	fmtPad := int64(len(formatChunk) % 2)
	dataPad := dataSize % 2
	riffSize := 4 + 8 + int64(len(formatChunk)) + fmtPad + 8 + dataSize + dataPad
	if riffSize > math.MaxUint32 {
		return 0, fmt.Errorf("%w: cut of %d bytes exceeds the RIFF size limit", audio.ErrIO, dataSize)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(riffSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(len(formatChunk)))
	buf.Write(formatChunk)
	if fmtPad == 1 {
		buf.WriteByte(0)
	}
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
