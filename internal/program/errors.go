package program

import "errors"

var (
	ErrNotFound = errors.New("exercise not found")
	// ErrValidation means the request is missing a required field or has an out of range value.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidFormat means a completion state payload is not an array of booleans.
	ErrInvalidFormat = errors.New("completion state must be an array of booleans")
	// ErrCorruptState means a stored completion state could not be decoded.
	ErrCorruptState = errors.New("stored completion state is corrupt")
)
