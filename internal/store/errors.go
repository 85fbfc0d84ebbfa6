package store

import "errors"

// ErrNotFound is returned by lookups that match no row in the caller's organization.
var ErrNotFound = errors.New("record not found")
