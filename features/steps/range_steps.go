//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"audiocut/domain/audio"

	"github.com/cucumber/godog"
)

type rangeContext struct {
	parsed audio.TimeRange
	err    error
}

var SharedRangeContext = &rangeContext{}

func InitializeRangeScenario(ctx *godog.ScenarioContext) {
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedRangeContext = &rangeContext{}
		return c, nil
	})

	ctx.Step(`^I parse the range "([^"]*)"$`, iParseTheRange)
	ctx.Step(`^the range should start at ([\d.]+) seconds and end at ([\d.]+) seconds$`, theRangeShouldStartAndEndAt)
	ctx.Step(`^the range should be rejected as invalid$`, theRangeShouldBeRejectedAsInvalid)
}

func iParseTheRange(s string) error {
	r, err := audio.ParseRange(s)
	SharedRangeContext.parsed = r
	SharedRangeContext.err = err
	return nil
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}

func theRangeShouldStartAndEndAt(start, end string) error {
	r := SharedRangeContext
	if r.err != nil {
		return fmt.Errorf("unexpected parse error: %v", r.err)
	}
	wantStart, err := parseSeconds(start)
	if err != nil {
		return err
	}
	wantEnd, err := parseSeconds(end)
	if err != nil {
		return err
	}
	if r.parsed.Start != wantStart || r.parsed.End != wantEnd {
		return fmt.Errorf("expected %v-%v, got %v-%v", wantStart, wantEnd, r.parsed.Start, r.parsed.End)
	}
	return nil
}

func theRangeShouldBeRejectedAsInvalid() error {
	r := SharedRangeContext
	if !errors.Is(r.err, audio.ErrInvalidRange) {
		return fmt.Errorf("expected an invalid range error, got %v", r.err)
	}
	return nil
}
