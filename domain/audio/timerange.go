package audio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeRange is a half-open [Start, End) span of an audio stream
type TimeRange struct {
	Start time.Duration
	End   time.Duration
}

// NewTimeRange validates and returns a TimeRange
func NewTimeRange(start, end time.Duration) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// ParseRange parses a range string of the form "<A>-<B>".
//
// Each side is a time point as accepted by ParseTimePoint. The string is split
// on the first "-" only.
func ParseRange(s string) (TimeRange, error) {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "-")
	if idx < 0 {
		return TimeRange{}, ErrNoRange
	}

	start, err := ParseTimePoint(s[:idx])
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := ParseTimePoint(s[idx+1:])
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid end time: %w", err)
	}

	return NewTimeRange(start, end)
}

// ParseTimePoint parses a single time point.
//
// A trailing "s" is stripped first, then:
//
//	"1:30", "1:30s"  minutes:seconds, both integers
//	"90s", "2.5s"    seconds
//	"1", "1.5"       minutes, fractions allowed
func ParseTimePoint(tok string) (time.Duration, error) {
	t := strings.ToLower(strings.TrimSpace(tok))
	if t == "" {
		return 0, &ParseError{Token: tok, Reason: "empty"}
	}

	inSeconds := strings.HasSuffix(t, "s")
	t = strings.TrimSuffix(t, "s")

	if strings.Contains(t, ":") {
		parts := strings.Split(t, ":")
		if len(parts) != 2 {
			return 0, &ParseError{Token: tok, Reason: "expected M:S"}
		}
		m, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			return 0, &ParseError{Token: tok, Reason: "minutes must be a whole number"}
		}
		sec, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return 0, &ParseError{Token: tok, Reason: "seconds must be a whole number"}
		}
		return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	}

	v, err := parseDecimal(t)
	if err != nil {
		return 0, &ParseError{Token: tok, Reason: err.Error()}
	}
	if inSeconds {
		return seconds(v), nil
	}
	return seconds(v * 60), nil
}

func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing number")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return v, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}

// Validate checks that the range is non-negative and Start is before End
func (r TimeRange) Validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("%w: times must not be negative", ErrInvalidRange)
	}
	if r.End <= r.Start {
		return fmt.Errorf("%w: end time %s must be after start time %s", ErrInvalidRange, FormatDuration(r.End), FormatDuration(r.Start))
	}
	return nil
}

// Clamp limits the range to [0, total]. The result may be empty when
// Start lies at or beyond total; callers check with Validate.
func (r TimeRange) Clamp(total time.Duration) TimeRange {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End > total {
		r.End = total
	}
	return r
}

// Length returns End - Start
func (r TimeRange) Length() time.Duration {
	return r.End - r.Start
}

func (r TimeRange) String() string {
	return FormatDuration(r.Start) + "-" + FormatDuration(r.End)
}

// FormatDuration renders d as HH:MM:SS.ss
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	hours := int(secs) / 3600
	minutes := (int(secs) % 3600) / 60
	rem := secs - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, rem)
}
