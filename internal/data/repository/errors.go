package repository

import "errors"

// ErrConflict is wrapped by writes rejected by a uniqueness or exclusion
// constraint.
var ErrConflict = errors.New("conflicting row")
