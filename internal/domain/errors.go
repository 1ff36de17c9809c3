package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// train does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would violate a uniqueness
// constraint (train_no taken, or a station repeated within one train).
var ErrDuplicate = errors.New("duplicate")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty train number, negative dwell minutes).
var ErrValidation = errors.New("validation error")

// ErrStorage wraps unexpected persistence failures. Operations that return
// it have been fully rolled back; previously committed state is untouched.
var ErrStorage = errors.New("storage error")
