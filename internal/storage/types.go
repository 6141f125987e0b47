package storage

import "errors"

var (
	// ErrNotFound indicates that the requested item was not found.
	ErrNotFound = errors.New("memory item not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)
