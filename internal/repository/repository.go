package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert loses to a uniqueness constraint,
// e.g. a concurrent create claimed the same partnership member.
var ErrConflict = errors.New("conflict")
