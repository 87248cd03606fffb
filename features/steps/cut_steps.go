//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	appcut "audiocut/application/cut"
	"audiocut/cmd"
	"audiocut/domain/audio"
	"audiocut/infrastructure/container"
	"audiocut/infrastructure/filesystem"
	"audiocut/infrastructure/mpeg"
	"audiocut/infrastructure/state"
	"audiocut/infrastructure/wav"

	"github.com/cucumber/godog"
)

// cutContext holds test state for cut scenarios
type cutContext struct {
	dir         string
	downloadDir string
	store       *state.Store
	output      *bytes.Buffer
	result      *appcut.Result
	previous    *appcut.Result
	err         error
}

// SharedCutContext is reset before each scenario via Before hook
var SharedCutContext *cutContext

func getCutContext() *cutContext {
	return SharedCutContext
}

func InitializeCutScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "cut-test-*")
		if err != nil {
			return c, err
		}
		SharedCutContext = &cutContext{
			dir:         dir,
			downloadDir: filepath.Join(dir, "Downloads"),
			store:       state.NewStore(filepath.Join(dir, "state.yaml")),
			output:      &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedCutContext != nil {
			os.RemoveAll(SharedCutContext.dir)
		}
		SharedCutContext = nil
		return c, nil
	})

	ctx.Step(`^a (\d+) Hz (mono|stereo) 16-bit WAV file "([^"]*)" lasting ([\d.]+) seconds$`, aWAVFileLasting)
	ctx.Step(`^a 128 kbps MP3 file "([^"]*)" with (\d+) frames$`, anMP3FileWithFrames)
	ctx.Step(`^a file "([^"]*)" that starts with "([^"]*)"$`, aFileThatStartsWith)
	ctx.Step(`^a writable downloads directory$`, aWritableDownloadsDirectory)
	ctx.Step(`^I cut "([^"]*)" with range "([^"]*)"$`, iCutWithRange)
	ctx.Step(`^I cut "([^"]*)" with range "([^"]*)" into "([^"]*)"$`, iCutWithRangeInto)
	ctx.Step(`^I cut again without a source using range "([^"]*)"$`, iCutAgainWithoutASource)
	ctx.Step(`^the cut should succeed$`, theCutShouldSucceed)
	ctx.Step(`^the cut should fail with (\w+)$`, theCutShouldFailWith)
	ctx.Step(`^the output file "([^"]*)" should be in the (downloads|source|target) directory$`, theOutputFileShouldBeIn)
	ctx.Step(`^the output should hold (\d+) bytes of sample data$`, theOutputShouldHoldBytesOfSampleData)
	ctx.Step(`^the output should begin with an MPEG frame sync$`, theOutputShouldBeginWithAFrameSync)
	ctx.Step(`^the output should be identical to the previous cut$`, theOutputShouldBeIdenticalToThePreviousCut)
	ctx.Step(`^no cut file should have been created$`, noCutFileShouldHaveBeenCreated)
}

func (c *cutContext) path(name string) string {
	return filepath.Join(c.dir, name)
}

func (c *cutContext) service() *appcut.Service {
	cutters := map[audio.ContainerKind]audio.Cutter{
		audio.ContainerPCM:  wav.NewCutter(),
		audio.ContainerMPEG: mpeg.NewCutter(),
	}
	return appcut.NewService(
		cutters,
		container.NewDetector(),
		filesystem.NewChecker(),
		filesystem.NewOutputWriter(),
		appcut.WithDownloadDir(c.downloadDir),
		appcut.WithOutput(c.output),
	)
}

func (c *cutContext) run(opts cmd.CutOptions) {
	c.previous = c.result
	c.result, c.err = cmd.RunCutWithDependencies(
		context.Background(),
		c.service(),
		filesystem.NewChecker(),
		nil,
		c.store,
		opts,
		c.output,
	)
}

func aWAVFileLasting(rate int, layout, name, seconds string) error {
	secs, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return err
	}
	channels := 1
	if layout == "stereo" {
		channels = 2
	}
	return writePCMWave(getCutContext().path(name), rate, channels, secs)
}

func anMP3FileWithFrames(name string, frames int) error {
	return writeCBRMP3(getCutContext().path(name), frames)
}

func aFileThatStartsWith(name, magic string) error {
	data := append([]byte(magic), make([]byte, 512)...)
	return os.WriteFile(getCutContext().path(name), data, 0644)
}

func aWritableDownloadsDirectory() error {
	return os.MkdirAll(getCutContext().downloadDir, 0755)
}

func iCutWithRange(name, r string) error {
	c := getCutContext()
	c.run(cmd.CutOptions{SourcePath: c.path(name), Range: r})
	return nil
}

func iCutWithRangeInto(name, r, target string) error {
	c := getCutContext()
	output := c.path(target)
	if strings.HasSuffix(target, "/") {
		output += string(os.PathSeparator)
	}
	c.run(cmd.CutOptions{SourcePath: c.path(name), Range: r, Output: output})
	return nil
}

func iCutAgainWithoutASource(r string) error {
	getCutContext().run(cmd.CutOptions{Range: r})
	return nil
}

func theCutShouldSucceed() error {
	c := getCutContext()
	if c.err != nil {
		return fmt.Errorf("expected success, got: %v", c.err)
	}
	if _, err := os.Stat(c.result.OutputPath); err != nil {
		return fmt.Errorf("output file missing: %w", err)
	}
	return nil
}

func theCutShouldFailWith(kind string) error {
	c := getCutContext()
	if c.err == nil {
		return fmt.Errorf("expected %s error, cut succeeded with %s", kind, c.result.OutputPath)
	}
	if got := audio.KindOf(c.err); string(got) != kind {
		return fmt.Errorf("expected %s error, got %s: %v", kind, got, c.err)
	}
	return nil
}

func theOutputFileShouldBeIn(name, where string) error {
	c := getCutContext()
	if c.result == nil {
		return fmt.Errorf("no cut result")
	}

	var dir string
	switch where {
	case "downloads":
		dir = c.downloadDir
	case "source":
		dir = c.dir
	case "target":
		dir = filepath.Dir(c.result.OutputPath)
	}

	want := filepath.Join(dir, name)
	if c.result.OutputPath != want {
		return fmt.Errorf("expected output %s, got %s", want, c.result.OutputPath)
	}
	if !filepath.IsAbs(c.result.OutputPath) {
		return fmt.Errorf("output path %s is not absolute", c.result.OutputPath)
	}
	return nil
}

func theOutputShouldHoldBytesOfSampleData(n int) error {
	c := getCutContext()
	f, err := os.Open(c.result.OutputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	h, err := wav.ReadHeader(f, info.Size())
	if err != nil {
		return fmt.Errorf("output is not a valid WAV file: %w", err)
	}
	if h.DataSize != int64(n) {
		return fmt.Errorf("expected %d bytes of sample data, got %d", n, h.DataSize)
	}
	return nil
}

func theOutputShouldBeginWithAFrameSync() error {
	c := getCutContext()
	data, err := os.ReadFile(c.result.OutputPath)
	if err != nil {
		return err
	}
	if len(data) < 2 || !mpeg.IsFrameSync(data[0], data[1]) {
		return fmt.Errorf("output starts with % x, want a frame sync", data[:min(len(data), 4)])
	}
	return nil
}

func theOutputShouldBeIdenticalToThePreviousCut() error {
	c := getCutContext()
	if c.previous == nil || c.result == nil {
		return fmt.Errorf("need two successful cuts to compare")
	}
	a, err := os.ReadFile(c.previous.OutputPath)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(c.result.OutputPath)
	if err != nil {
		return err
	}
	if !bytes.Equal(a, b) {
		return fmt.Errorf("repeated cut differs (%d vs %d bytes)", len(a), len(b))
	}
	return nil
}

func noCutFileShouldHaveBeenCreated() error {
	c := getCutContext()
	for _, dir := range []string{c.dir, c.downloadDir} {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Name() == "state.yaml" || e.IsDir() {
				continue
			}
			if strings.Contains(e.Name(), "_cut") {
				return fmt.Errorf("unexpected output %s", filepath.Join(dir, e.Name()))
			}
			if strings.HasPrefix(e.Name(), ".") {
				return fmt.Errorf("leftover temporary file %s", filepath.Join(dir, e.Name()))
			}
		}
	}
	return nil
}
