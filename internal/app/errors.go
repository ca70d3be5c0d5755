package service

import "errors"

var (
	// ErrNotStarted is returned by operations called before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrBatchTooLarge is returned when a sequence asks for more frames than
	// the service renders in one call.
	ErrBatchTooLarge = errors.New("too many frames requested")
	// ErrInvalidRange is returned for malformed from/to/step arguments.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrRenderPanic wraps a panic raised while rendering one frame.
	ErrRenderPanic = errors.New("frame rendering panicked")
	// ErrFrameMissing is returned when a sequence job finished without
	// producing its frame.
	ErrFrameMissing = errors.New("frame not rendered")
)
