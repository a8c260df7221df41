package service

import "errors"

// Sentinel kinds for aggregation service errors.
var (
	// ErrTooManyStudents marks a request above the per-call student cap.
	ErrTooManyStudents = errors.New("too many students requested")
)
