//go:build integration

package steps

import (
	"bytes"
	"encoding/binary"
	"os"

	"audiocut/infrastructure/wav"
)

// MPEG-1 Layer III, 128 kbps, 44.1 kHz, no padding
var mp3FrameHeader = []byte{0xFF, 0xFB, 0x90, 0x00}

const mp3FrameLen = 417

// writePCMWave writes a 16-bit PCM WAV file whose samples follow a
// repeating byte ramp, so any byte range of the payload is recognisable
func writePCMWave(path string, rate, channels int, seconds float64) error {
	const sampleWidth = 2
	blockAlign := channels * sampleWidth
	frames := int(float64(rate) * seconds)

	fmtChunk := new(bytes.Buffer)
	binary.Write(fmtChunk, binary.LittleEndian, uint16(1))
	binary.Write(fmtChunk, binary.LittleEndian, uint16(channels))
	binary.Write(fmtChunk, binary.LittleEndian, uint32(rate))
	binary.Write(fmtChunk, binary.LittleEndian, uint32(rate*blockAlign))
	binary.Write(fmtChunk, binary.LittleEndian, uint16(blockAlign))
	binary.Write(fmtChunk, binary.LittleEndian, uint16(sampleWidth*8))

	payload := make([]byte, frames*blockAlign)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	var b bytes.Buffer
	if _, err := wav.WriteHeader(&b, fmtChunk.Bytes(), int64(len(payload))); err != nil {
		return err
	}
	b.Write(payload)
	return os.WriteFile(path, b.Bytes(), 0644)
}

// writeCBRMP3 writes an ID3-less constant-bitrate MP3 of the given frame count
func writeCBRMP3(path string, frames int) error {
	var b bytes.Buffer
	for i := 0; i < frames; i++ {
		b.Write(mp3FrameHeader)
		b.Write(make([]byte, mp3FrameLen-len(mp3FrameHeader)))
	}
	return os.WriteFile(path, b.Bytes(), 0644)
}
