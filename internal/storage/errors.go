package storage

import "errors"

// ErrNotFound is returned when a requested profile does not exist.
var ErrNotFound = errors.New("profile not found")
