package script

import "errors"

var (
	// ErrClosed is returned when running code on a closed script.
	ErrClosed = errors.New("script is closed")

	// ErrTimeout is returned when a chunk runs longer than the configured
	// timeout.
	ErrTimeout = errors.New("script execution timeout")
)
