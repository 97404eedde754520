package queue

import "errors"

// Sentinel enqueue failures.
var (
	ErrFull   = errors.New("run queue full")
	ErrClosed = errors.New("run queue closed")
)
