package wav

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"audiocut/domain/audio"
)

type fixture struct {
	channels int
	bits     int
	rate     int
	frames   int
	tag      uint16
	// extra chunks are written between fmt and data
	extra []rawChunk
}

type rawChunk struct {
	id   string
	body []byte
}

func (fx fixture) payload() []byte {
	n := fx.frames * fx.channels * ((fx.bits + 7) / 8)
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}

func (fx fixture) fmtBody() []byte {
	tag := fx.tag
	if tag == 0 {
		tag = formatPCM
	}
	width := (fx.bits + 7) / 8
	body := make([]byte, 16)
	binary.LittleEndian.PutUint16(body[0:], tag)
	binary.LittleEndian.PutUint16(body[2:], uint16(fx.channels))
	binary.LittleEndian.PutUint32(body[4:], uint32(fx.rate))
	binary.LittleEndian.PutUint32(body[8:], uint32(fx.rate*fx.channels*width))
	binary.LittleEndian.PutUint16(body[12:], uint16(fx.channels*width))
	binary.LittleEndian.PutUint16(body[14:], uint16(fx.bits))
	return body
}

func (fx fixture) bytes() []byte {
	var chunks bytes.Buffer
	writeChunk := func(id string, body []byte) {
		chunks.WriteString(id)
		binary.Write(&chunks, binary.LittleEndian, uint32(len(body)))
		chunks.Write(body)
		if len(body)%2 == 1 {
			chunks.WriteByte(0)
		}
	}
	writeChunk("fmt ", fx.fmtBody())
	for _, c := range fx.extra {
		writeChunk(c.id, c.body)
	}
	writeChunk("data", fx.payload())

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+chunks.Len()))
	out.WriteString("WAVE")
	out.Write(chunks.Bytes())
	return out.Bytes()
}

func (fx fixture) write(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.wav")
	if err := os.WriteFile(path, fx.bytes(), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func cut(t *testing.T, source string, r audio.TimeRange) ([]byte, *audio.CutStats, error) {
	t.Helper()
	req := &audio.CutRequest{SourcePath: source, Range: r, OutputPath: source + ".out"}
	var buf bytes.Buffer
	stats, err := NewCutter().Cut(context.Background(), req, &buf)
	return buf.Bytes(), stats, err
}

func parseOutput(t *testing.T, out []byte) (*Header, []byte) {
	t.Helper()
	h, err := ReadHeader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("output is not a valid WAVE file: %v", err)
	}
	return h, out[h.DataOffset : h.DataOffset+h.DataSize]
}

func TestReadHeader(t *testing.T) {
	fx := fixture{
		channels: 2, bits: 16, rate: 48000, frames: 480,
		extra: []rawChunk{{id: "LIST", body: []byte("INFOodd")}},
	}
	data := fx.bytes()

	h, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadHeader() unexpected error: %v", err)
	}

	want := audio.PCMMetadata{ChannelCount: 2, SampleWidthBytes: 2, SampleRateHz: 48000, TotalFrameCount: 480}
	if h.PCMMetadata != want {
		t.Errorf("ReadHeader() metadata = %+v, want %+v", h.PCMMetadata, want)
	}
	if h.DataSize != 480*4 {
		t.Errorf("DataSize = %d, want %d", h.DataSize, 480*4)
	}
	if !bytes.Equal(data[h.DataOffset:h.DataOffset+h.DataSize], fx.payload()) {
		t.Error("DataOffset does not point at the payload")
	}
	if h.Duration() != 10*time.Millisecond {
		t.Errorf("Duration() = %v, want 10ms", h.Duration())
	}
}

func TestReadHeader_Errors(t *testing.T) {
	valid := fixture{channels: 1, bits: 16, rate: 8000, frames: 10}

	zeroChannels := valid
	zeroChannels.channels = 0

	compressed := valid
	compressed.tag = 0x0055

	noData := valid.bytes()
	noData = noData[:12+8+16]

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not riff", []byte("ID3\x04\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), audio.ErrUnsupportedFormat},
		{"too short", []byte("RIFF"), audio.ErrHeaderParse},
		{"zero channels", zeroChannels.bytes(), audio.ErrHeaderParse},
		{"compressed format", compressed.bytes(), audio.ErrUnsupportedFormat},
		{"missing data chunk", noData, audio.ErrHeaderParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(bytes.NewReader(tt.data), int64(len(tt.data)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadHeader_OddDataChunkExcludesPadByte(t *testing.T) {
	fx := fixture{channels: 1, bits: 8, rate: 8000, frames: 101}
	data := fx.bytes()

	h, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadHeader() unexpected error: %v", err)
	}
	if h.TotalFrameCount != 101 || h.DataSize != 101 {
		t.Errorf("frames = %d, size = %d; want 101, 101", h.TotalFrameCount, h.DataSize)
	}
	if h.FormatTag != formatPCM || len(h.FormatChunk) != minFmtSize {
		t.Errorf("format tag = %#x with %d byte body, want PCM with 16", h.FormatTag, len(h.FormatChunk))
	}
}

func TestReadHeader_TruncatedDataChunk(t *testing.T) {
	data := fixture{channels: 1, bits: 16, rate: 8000, frames: 100}.bytes()
	// drop the last 51 bytes: 25 whole frames plus half a frame
	data = data[:len(data)-51]

	h, err := ReadHeader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadHeader() unexpected error: %v", err)
	}
	if h.TotalFrameCount != 74 {
		t.Errorf("TotalFrameCount = %d, want 74", h.TotalFrameCount)
	}
}

func TestCutter_HalfSecondMono(t *testing.T) {
	fx := fixture{channels: 1, bits: 16, rate: 44100, frames: 44100}
	source := fx.write(t)

	out, stats, err := cut(t, source, audio.TimeRange{Start: 0, End: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("Cut() unexpected error: %v", err)
	}

	h, payload := parseOutput(t, out)
	if len(payload) != 44100 {
		t.Errorf("payload length = %d, want 44100", len(payload))
	}
	if h.TotalFrameCount != 22050 {
		t.Errorf("output frames = %d, want 22050", h.TotalFrameCount)
	}
	if h.ChannelCount != 1 || h.SampleWidthBytes != 2 || h.SampleRateHz != 44100 {
		t.Errorf("output header = %+v, want mono 16-bit 44100 Hz", h.PCMMetadata)
	}
	if !bytes.Equal(payload, fx.payload()[:44100]) {
		t.Error("payload differs from the first 22050 source frames")
	}
	if stats.SourceLength != 44100 || stats.BytesWritten != int64(len(out)) {
		t.Errorf("stats = %+v, output %d bytes", stats, len(out))
	}
	if stats.Realigned() {
		t.Error("PCM cuts are never realigned")
	}
}

func TestCutter_RoundTrip(t *testing.T) {
	fx := fixture{channels: 2, bits: 24, rate: 22050, frames: 1001}
	source := fx.write(t)

	h, err := probe(source)
	if err != nil {
		t.Fatalf("probe() unexpected error: %v", err)
	}

	out, _, err := cut(t, source, audio.TimeRange{Start: 0, End: h.Duration()})
	if err != nil {
		t.Fatalf("Cut() unexpected error: %v", err)
	}

	_, payload := parseOutput(t, out)
	if !bytes.Equal(payload, fx.payload()) {
		t.Errorf("round trip payload differs: got %d bytes, want %d", len(payload), len(fx.payload()))
	}
}

func TestCutter_Idempotent(t *testing.T) {
	source := fixture{channels: 2, bits: 16, rate: 8000, frames: 8000}.write(t)
	r := audio.TimeRange{Start: 250 * time.Millisecond, End: 750 * time.Millisecond}

	first, _, err := cut(t, source, r)
	if err != nil {
		t.Fatalf("first Cut() unexpected error: %v", err)
	}
	second, _, err := cut(t, source, r)
	if err != nil {
		t.Fatalf("second Cut() unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cutting the same range twice produced different output")
	}
}

func TestCutter_MidRangeOffsets(t *testing.T) {
	fx := fixture{channels: 2, bits: 16, rate: 8000, frames: 8000}
	source := fx.write(t)

	out, _, err := cut(t, source, audio.TimeRange{Start: 250 * time.Millisecond, End: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("Cut() unexpected error: %v", err)
	}

	_, payload := parseOutput(t, out)
	want := fx.payload()[2000*4 : 4000*4]
	if !bytes.Equal(payload, want) {
		t.Error("payload does not match frames [2000, 4000)")
	}
}

func TestCutter_ClampsEndToDuration(t *testing.T) {
	fx := fixture{channels: 1, bits: 8, rate: 8000, frames: 8001}
	source := fx.write(t)

	out, stats, err := cut(t, source, audio.TimeRange{Start: 500 * time.Millisecond, End: time.Hour})
	if err != nil {
		t.Fatalf("Cut() unexpected error: %v", err)
	}

	h, payload := parseOutput(t, out)
	if h.TotalFrameCount != 4001 {
		t.Errorf("output frames = %d, want 4001", h.TotalFrameCount)
	}
	if !bytes.Equal(payload, fx.payload()[4000:]) {
		t.Error("payload does not match frames [4000, 8001)")
	}
	if len(out)%2 != 0 {
		t.Errorf("odd data chunk was not padded: %d bytes", len(out))
	}
	if stats.Range.End != 1000125*time.Microsecond {
		t.Errorf("range end = %v, want the 1.000125s stream duration", stats.Range.End)
	}
}

func TestCutter_StartBeyondDuration(t *testing.T) {
	source := fixture{channels: 1, bits: 16, rate: 8000, frames: 8000}.write(t)

	_, _, err := cut(t, source, audio.TimeRange{Start: time.Minute, End: 2 * time.Minute})
	if !errors.Is(err, audio.ErrInvalidRange) {
		t.Errorf("Cut() error = %v, want ErrInvalidRange", err)
	}
}

func TestCutter_MissingFile(t *testing.T) {
	_, _, err := cut(t, filepath.Join(t.TempDir(), "missing.wav"), audio.TimeRange{End: time.Second})
	if audio.KindOf(err) != audio.KindFileNotFound {
		t.Errorf("Cut() kind = %s, want FileNotFound (err: %v)", audio.KindOf(err), err)
	}
}

func TestCutter_Probe(t *testing.T) {
	source := fixture{channels: 2, bits: 16, rate: 44100, frames: 88200}.write(t)

	meta, err := NewCutter().Probe(context.Background(), source)
	if err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}
	if meta.Kind() != audio.ContainerPCM {
		t.Errorf("Kind() = %v, want pcm", meta.Kind())
	}
	if meta.TotalDuration() != 2*time.Second {
		t.Errorf("TotalDuration() = %v, want 2s", meta.TotalDuration())
	}
}
