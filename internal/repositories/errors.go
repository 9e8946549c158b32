package repositories

import "errors"

// ErrNotFound is returned when a scoped lookup matches no row.
var ErrNotFound = errors.New("record not found")
