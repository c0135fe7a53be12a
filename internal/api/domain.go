package api

import "errors"

var (
	// ErrInvalidCity marks user input that failed city-name validation.
	// Recoverable: the user can correct the name and retry.
	ErrInvalidCity = errors.New("invalid city name")

	// ErrNotFound marks external data that could not be obtained. A city
	// unknown to the geocoder and a transient network failure both collapse
	// into this error; callers cannot tell them apart.
	ErrNotFound = errors.New("requested item not found")
)
