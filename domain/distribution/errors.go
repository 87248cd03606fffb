package distribution

import "errors"

var (
	// ErrUnknownTarget is returned for an upload target other than drive or minio
	ErrUnknownTarget = errors.New("unknown upload target")

	// ErrNotConfigured is returned when a target lacks the settings it needs
	ErrNotConfigured = errors.New("upload target not configured")

	// ErrInsufficientStorage is returned when the destination has no room for the file
	ErrInsufficientStorage = errors.New("insufficient storage")
)
