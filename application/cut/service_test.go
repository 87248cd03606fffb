package cut

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audiocut/domain/audio"
)

// --- Mock implementations for testing ---

// mockCutter implements audio.Cutter for testing
type mockCutter struct {
	kind     audio.ContainerKind
	payload  []byte
	failErr  error
	requests []*audio.CutRequest
}

func (m *mockCutter) Probe(ctx context.Context, path string) (audio.ContainerMetadata, error) {
	if m.kind == audio.ContainerPCM {
		return audio.PCMMetadata{ChannelCount: 1, SampleWidthBytes: 2, SampleRateHz: 8000, TotalFrameCount: 8000}, nil
	}
	return audio.BitstreamMetadata{Duration: time.Minute, FileSizeBytes: 60000}, nil
}

func (m *mockCutter) Cut(ctx context.Context, req *audio.CutRequest, w io.Writer) (*audio.CutStats, error) {
	m.requests = append(m.requests, req)
	n, _ := w.Write(m.payload)
	if m.failErr != nil {
		return nil, m.failErr
	}
	return &audio.CutStats{Range: req.Range, SourceLength: int64(n), BytesWritten: int64(n)}, nil
}

// mockDetector implements audio.Detector for testing
type mockDetector struct {
	kind audio.ContainerKind
	err  error
}

func (m *mockDetector) Detect(path string) (audio.ContainerKind, error) {
	return m.kind, m.err
}

// mockFileChecker implements audio.FileChecker for testing
type mockFileChecker struct {
	existingFiles map[string]bool
}

func (m *mockFileChecker) Exists(path string) bool {
	return m.existingFiles[path]
}

// mockOutputs implements audio.OutputCreator for testing
type mockOutputs struct {
	created map[string]*mockOutputFile
	err     error
}

type mockOutputFile struct {
	bytes.Buffer
	committed bool
	aborted   bool
}

func (f *mockOutputFile) Commit() error { f.committed = true; return nil }
func (f *mockOutputFile) Abort() error  { f.aborted = true; return nil }

func newMockOutputs() *mockOutputs {
	return &mockOutputs{created: make(map[string]*mockOutputFile)}
}

func (m *mockOutputs) Create(path string) (audio.OutputFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	f := &mockOutputFile{}
	m.created[path] = f
	return f, nil
}

type fixture struct {
	svc      *Service
	pcm      *mockCutter
	mpeg     *mockCutter
	detector *mockDetector
	outputs  *mockOutputs
	source   string
	output   *bytes.Buffer
}

func newFixture(t *testing.T, kind audio.ContainerKind, opts ...ServiceOption) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		pcm:      &mockCutter{kind: audio.ContainerPCM, payload: []byte("RIFF")},
		mpeg:     &mockCutter{kind: audio.ContainerMPEG, payload: []byte{0xFF, 0xFB}},
		detector: &mockDetector{kind: kind},
		outputs:  newMockOutputs(),
		source:   filepath.Join(dir, "song.wav"),
		output:   &bytes.Buffer{},
	}
	checker := &mockFileChecker{existingFiles: map[string]bool{f.source: true}}
	cutters := map[audio.ContainerKind]audio.Cutter{
		audio.ContainerPCM:  f.pcm,
		audio.ContainerMPEG: f.mpeg,
	}
	f.svc = NewService(cutters, f.detector, checker, f.outputs, append([]ServiceOption{WithOutput(f.output)}, opts...)...)
	return f
}

func TestService_Cut_RoutesByKind(t *testing.T) {
	tests := []struct {
		name   string
		kind   audio.ContainerKind
		wantPC int
		wantMP int
	}{
		{"pcm", audio.ContainerPCM, 1, 0},
		{"mpeg", audio.ContainerMPEG, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.kind)

			result, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0:30-1:30"})
			if err != nil {
				t.Fatalf("Cut() unexpected error: %v", err)
			}
			if len(f.pcm.requests) != tt.wantPC || len(f.mpeg.requests) != tt.wantMP {
				t.Errorf("pcm calls = %d, mpeg calls = %d; want %d, %d",
					len(f.pcm.requests), len(f.mpeg.requests), tt.wantPC, tt.wantMP)
			}
			if result.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", result.Kind, tt.kind)
			}
			if !f.outputs.created[result.OutputPath].committed {
				t.Error("output was not committed")
			}
		})
	}
}

func TestService_Cut_ParsedRangeReachesCutter(t *testing.T) {
	f := newFixture(t, audio.ContainerPCM)

	if _, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "90s-120s"}); err != nil {
		t.Fatalf("Cut() unexpected error: %v", err)
	}

	got := f.pcm.requests[0].Range
	want := audio.TimeRange{Start: 90 * time.Second, End: 120 * time.Second}
	if got != want {
		t.Errorf("range = %+v, want %+v", got, want)
	}
}

func TestService_Cut_InvalidRangeTouchesNothing(t *testing.T) {
	f := newFixture(t, audio.ContainerPCM)
	// detection would fail too, but must never be reached
	f.detector.err = errors.New("should not be called")

	for _, r := range []string{"", "abc", "2:00-1:00", "1:00-1:00", "1:3x-2"} {
		_, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: r})
		if !errors.Is(err, audio.ErrInvalidRange) {
			t.Errorf("Cut(range %q) error = %v, want ErrInvalidRange", r, err)
		}
	}
	if len(f.outputs.created) != 0 {
		t.Errorf("created %d outputs for invalid ranges", len(f.outputs.created))
	}
}

func TestService_Cut_MissingSource(t *testing.T) {
	f := newFixture(t, audio.ContainerPCM)

	_, err := f.svc.Cut(context.Background(), Input{SourcePath: filepath.Join(t.TempDir(), "nope.wav"), Range: "0-1"})
	if audio.KindOf(err) != audio.KindFileNotFound {
		t.Errorf("Cut() kind = %s, want FileNotFound", audio.KindOf(err))
	}

	_, err = f.svc.Cut(context.Background(), Input{Range: "0-1"})
	if audio.KindOf(err) != audio.KindFileNotFound {
		t.Errorf("Cut() with no source kind = %s, want FileNotFound", audio.KindOf(err))
	}
}

func TestService_Cut_UnsupportedCreatesNoOutput(t *testing.T) {
	f := newFixture(t, audio.ContainerUnknown)
	f.detector.err = audio.ErrUnsupportedFormat

	_, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0-1"})
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("Cut() error = %v, want ErrUnsupportedFormat", err)
	}
	if len(f.outputs.created) != 0 {
		t.Error("an output was created for an unsupported container")
	}
}

func TestService_Cut_NoCutterForKind(t *testing.T) {
	f := newFixture(t, audio.ContainerUnknown)

	_, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0-1"})
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("Cut() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestService_Cut_FailureAbortsOutput(t *testing.T) {
	f := newFixture(t, audio.ContainerMPEG)
	f.mpeg.failErr = audio.HeaderErrorf("no MPEG audio frames")

	_, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0-1"})
	if audio.KindOf(err) != audio.KindHeaderParseError {
		t.Errorf("Cut() kind = %s, want HeaderParseError", audio.KindOf(err))
	}

	for path, out := range f.outputs.created {
		if !out.aborted || out.committed {
			t.Errorf("output %s: aborted=%v committed=%v, want aborted only", path, out.aborted, out.committed)
		}
	}
}

func TestService_Cut_OutputLocation(t *testing.T) {
	downloads := t.TempDir()
	target := t.TempDir()

	tests := []struct {
		name     string
		opts     []ServiceOption
		target   string
		wantPath func(f *fixture) string
	}{
		{
			name:     "downloads directory",
			opts:     []ServiceOption{WithDownloadDir(downloads)},
			wantPath: func(f *fixture) string { return filepath.Join(downloads, "song_cut.wav") },
		},
		{
			name:     "missing downloads falls back to source directory",
			opts:     []ServiceOption{WithDownloadDir(filepath.Join(downloads, "missing"))},
			wantPath: func(f *fixture) string { return filepath.Join(filepath.Dir(f.source), "song_cut.wav") },
		},
		{
			name:     "explicit directory",
			opts:     []ServiceOption{WithDownloadDir(downloads)},
			target:   target,
			wantPath: func(f *fixture) string { return filepath.Join(target, "song_cut.wav") },
		},
		{
			name:     "explicit file",
			target:   filepath.Join(target, "chorus.wav"),
			wantPath: func(f *fixture) string { return filepath.Join(target, "chorus.wav") },
		},
		{
			name:     "custom suffix",
			opts:     []ServiceOption{WithDownloadDir(downloads), WithSuffix("_clip")},
			wantPath: func(f *fixture) string { return filepath.Join(downloads, "song_clip.wav") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, audio.ContainerPCM, tt.opts...)

			result, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0-1", Target: tt.target})
			if err != nil {
				t.Fatalf("Cut() unexpected error: %v", err)
			}
			if want := tt.wantPath(f); result.OutputPath != want {
				t.Errorf("OutputPath = %q, want %q", result.OutputPath, want)
			}
			if !filepath.IsAbs(result.OutputPath) {
				t.Errorf("OutputPath %q is not absolute", result.OutputPath)
			}
		})
	}
}

func TestService_Cut_OutputOverSourceRejected(t *testing.T) {
	f := newFixture(t, audio.ContainerPCM)

	_, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0-1", Target: f.source})
	if !errors.Is(err, audio.ErrIO) {
		t.Errorf("Cut() error = %v, want ErrIO", err)
	}
	if len(f.outputs.created) != 0 {
		t.Error("an output was created over the source")
	}
}

func TestService_Cut_ReportsProgress(t *testing.T) {
	f := newFixture(t, audio.ContainerPCM)

	result, err := f.svc.Cut(context.Background(), Input{SourcePath: f.source, Range: "0-1"})
	if err != nil {
		t.Fatalf("Cut() unexpected error: %v", err)
	}

	out := f.output.String()
	if !strings.Contains(out, "Created: "+result.OutputPath) {
		t.Errorf("progress output = %q, want the created path", out)
	}
}

func TestService_Probe(t *testing.T) {
	f := newFixture(t, audio.ContainerMPEG)

	meta, err := f.svc.Probe(context.Background(), f.source)
	if err != nil {
		t.Fatalf("Probe() unexpected error: %v", err)
	}
	if meta.Kind() != audio.ContainerMPEG || meta.TotalDuration() != time.Minute {
		t.Errorf("Probe() = %v, want a one minute mpeg stream", meta)
	}
}

func TestResolveOutputPath_CreatesTrailingSeparatorDir(t *testing.T) {
	f := newFixture(t, audio.ContainerPCM)
	dir := filepath.Join(t.TempDir(), "new") + string(os.PathSeparator)

	path, err := f.svc.ResolveOutputPath(f.source, dir)
	if err != nil {
		t.Fatalf("ResolveOutputPath() unexpected error: %v", err)
	}
	if filepath.Base(path) != "song_cut.wav" {
		t.Errorf("ResolveOutputPath() = %q, want song_cut.wav inside %s", path, dir)
	}
}
