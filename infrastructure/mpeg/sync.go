package mpeg

import (
	"errors"
	"io"

	"audiocut/domain/audio"
)

// DefaultLookahead is how far past an estimated offset the frame-sync search looks
const DefaultLookahead = 2048

// IsFrameSync reports whether b0 b1 begin an MPEG audio frame header
// (eleven set bits).
func IsFrameSync(b0, b1 byte) bool {
	return b0 == 0xFF && b1&0xE0 == 0xE0
}

// IsFrameHeader is IsFrameSync plus a valid MPEG version and a non-zero layer.
// It tells MP3 apart from AAC ADTS, which shares the sync word with layer 00.
func IsFrameHeader(b0, b1 byte) bool {
	return IsFrameSync(b0, b1) && b1&0x18 != 0x08 && b1&0x06 != 0
}

// FindSync returns the offset of the first frame-sync pattern in window, or -1
func FindSync(window []byte) int {
	for i := 0; i+1 < len(window); i++ {
		if IsFrameSync(window[i], window[i+1]) {
			return i
		}
	}
	return -1
}

// Realign moves start forward to the first frame sync within lookahead bytes.
// The original start is kept when no sync is found or when the sync lies at
// or beyond limit.
func Realign(r io.ReaderAt, start, limit int64, lookahead int) (int64, error) {
	if lookahead <= 0 {
		return start, nil
	}

	// one extra byte so a sync at lookahead-1 can be confirmed
	buf := make([]byte, lookahead+1)
	n, err := r.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return start, audio.IOErrorf(err, "reading sync window at %d", start)
	}

	i := FindSync(buf[:n])
	if i < 0 || start+int64(i) >= limit {
		return start, nil
	}
	return start + int64(i), nil
}
