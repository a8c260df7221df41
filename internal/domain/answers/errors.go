package answers

import (
	"errors"
)

// Skip classifications. Each marks an event (or a student's contribution)
// that is excluded from the fold without aborting the batch; callers assert
// on them with errors.Is and report them per category.
var (
	// ErrIgnoredSource marks events whose source is not a scorable
	// assessment event.
	ErrIgnoredSource = errors.New("ignored event source")

	// ErrMalformedPayload marks events whose data blob cannot be decoded.
	ErrMalformedPayload = errors.New("malformed event payload")

	// ErrMalformedLocation marks events whose location carries no
	// unit/lesson markers.
	ErrMalformedLocation = errors.New("malformed location")

	// ErrUnknownInstance marks events whose instance id is absent from the
	// catalog. Expected for out-of-catalog (Quizly-style) exercises.
	ErrUnknownInstance = errors.New("unknown instance id")

	// ErrMissingStudent marks a user id that does not resolve to a known
	// student. Raised by the aggregation layer, classified here so skip
	// reporting stays in one place.
	ErrMissingStudent = errors.New("missing student")
)

// SkipReason maps a classified skip to its metrics/reporting label.
// Unclassified errors report as "other".
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrIgnoredSource):
		return "ignored_source"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMalformedLocation):
		return "malformed_location"
	case errors.Is(err, ErrUnknownInstance):
		return "unknown_instance"
	case errors.Is(err, ErrMissingStudent):
		return "missing_student"
	default:
		return "other"
	}
}
