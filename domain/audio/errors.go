package audio

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed cut for the caller
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindInvalidRange      ErrorKind = "InvalidRange"
	KindFileNotFound      ErrorKind = "FileNotFound"
	KindUnsupportedFormat ErrorKind = "UnsupportedFormat"
	KindHeaderParseError  ErrorKind = "HeaderParseError"
	KindIOError           ErrorKind = "IOError"
	KindUnknown           ErrorKind = "Unknown"
)

var (
	// ErrInvalidRange is returned when a range string is malformed or start is not before end
	ErrInvalidRange = errors.New("invalid time range")

	// ErrNoRange is returned when a range string has no "-" separator
	ErrNoRange = fmt.Errorf("%w: expected <start>-<end> (e.g. 0:30-1:30 or 0-1)", ErrInvalidRange)

	// ErrFileNotFound is returned when the source file does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for containers that are neither PCM nor MPEG audio
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrHeaderParse is returned when a container header is malformed
	ErrHeaderParse = errors.New("header parse error")

	// ErrIO is returned for read or write failures during a cut
	ErrIO = errors.New("i/o error")
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindInvalidRange, ErrInvalidRange},
	{KindFileNotFound, ErrFileNotFound},
	{KindUnsupportedFormat, ErrUnsupportedFormat},
	{KindHeaderParseError, ErrHeaderParse},
	{KindIOError, ErrIO},
}

// KindOf returns the ErrorKind carried by err, KindNone for a nil error
// and KindUnknown for errors that did not originate in the cut engine
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindUnknown
}

// ParseError reports a time point that could not be parsed.
// It matches ErrInvalidRange under errors.Is.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time point %q: %s", e.Token, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidRange
}

// IOErrorf wraps err as an ErrIO with context
func IOErrorf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, fmt.Sprintf(format, args...), err)
}

// HeaderErrorf builds an ErrHeaderParse with a formatted detail
func HeaderErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrHeaderParse, fmt.Sprintf(format, args...))
}
