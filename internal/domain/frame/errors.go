package frame

import "errors"

var (
	// ErrOutOfRange is returned when no rows exist at the requested sample.
	ErrOutOfRange = errors.New("timestamp out of range")
	// ErrDataIntegrity is returned when a sample slice cannot form a frame,
	// such as a duplicated entity id.
	ErrDataIntegrity = errors.New("tracking data integrity violation")
	// ErrInvalidSampleRate is returned for a non-positive or non-finite rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)
