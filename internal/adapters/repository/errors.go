package repository

import "errors"

// Sentinel kinds for score cache errors.
var (
	ErrNotFound = errors.New("student entry not found")
)
