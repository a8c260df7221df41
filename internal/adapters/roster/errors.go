package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrNotFound = errors.New("student not enrolled")
)
