package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull = errors.New("render queue full")
	ErrClosed    = errors.New("render queue closed")
)
