package mpeg

import (
	"bytes"
	"testing"
)

func TestFindSync(t *testing.T) {
	tests := []struct {
		name   string
		window []byte
		want   int
	}{
		{"empty", nil, -1},
		{"single byte", []byte{0xFF}, -1},
		{"at start", []byte{0xFF, 0xFB, 0x90}, 0},
		{"after filler", []byte{0x00, 0x12, 0xFF, 0xE0}, 2},
		{"ff without sync bits", []byte{0xFF, 0xD0, 0x00}, -1},
		{"ff ff counts", []byte{0x01, 0xFF, 0xFF}, 1},
		{"trailing ff", []byte{0x00, 0x00, 0xFF}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindSync(tt.window); got != tt.want {
				t.Errorf("FindSync(% x) = %d, want %d", tt.window, got, tt.want)
			}
		})
	}
}

func TestIsFrameHeader(t *testing.T) {
	tests := []struct {
		name   string
		b0, b1 byte
		want   bool
	}{
		{"mpeg-1 layer iii", 0xFF, 0xFB, true},
		{"mpeg-2 layer iii", 0xFF, 0xF3, true},
		{"mpeg-2.5 layer iii", 0xFF, 0xE3, true},
		{"mpeg-1 layer ii", 0xFF, 0xFD, true},
		{"aac adts mpeg-4", 0xFF, 0xF1, false},
		{"aac adts mpeg-2", 0xFF, 0xF9, false},
		{"reserved version", 0xFF, 0xEB, false},
		{"no sync", 0xFE, 0xFB, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFrameHeader(tt.b0, tt.b1); got != tt.want {
				t.Errorf("IsFrameHeader(%02x %02x) = %v, want %v", tt.b0, tt.b1, got, tt.want)
			}
		})
	}
}

func TestRealign(t *testing.T) {
	stream := func(size int, syncAt int) *bytes.Reader {
		b := make([]byte, size)
		if syncAt >= 0 {
			b[syncAt] = 0xFF
			b[syncAt+1] = 0xF3
		}
		return bytes.NewReader(b)
	}

	tests := []struct {
		name  string
		r     *bytes.Reader
		start int64
		limit int64
		want  int64
	}{
		{"no sync", stream(8192, -1), 1000, 8192, 1000},
		{"sync at start", stream(8192, 1000), 1000, 8192, 1000},
		{"last byte of window", stream(8192, 1000+2047), 1000, 8192, 3047},
		{"just past window", stream(8192, 1000+2048), 1000, 8192, 1000},
		{"sync at limit", stream(8192, 1500), 1000, 1500, 1000},
		{"short read near eof", stream(1100, 1050), 1000, 1100, 1050},
		{"start at eof", stream(100, -1), 100, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Realign(tt.r, tt.start, tt.limit, DefaultLookahead)
			if err != nil {
				t.Fatalf("Realign() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Realign() = %d, want %d", got, tt.want)
			}
		})
	}
}
