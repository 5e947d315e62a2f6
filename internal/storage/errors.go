package storage

import "errors"

// ErrNotFound is returned when no live record matches the requested id.
var ErrNotFound = errors.New("not found")
