package eventstore

import "errors"

// Sentinel kinds for event store errors.
var (
	// ErrUnavailable marks total event-source unavailability. It is the
	// one engine failure surfaced to callers, as a retryable transient.
	ErrUnavailable = errors.New("event source unavailable")
)
