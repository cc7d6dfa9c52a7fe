package storage

import "errors"

// ErrNotFound is returned when no saved analysis exists under a name.
var ErrNotFound = errors.New("analysis not found")
