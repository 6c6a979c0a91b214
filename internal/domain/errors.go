package domain

import "errors"

var (
	// ErrUnknownLocation is returned when a named location cannot be resolved.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrInvalidCoordinate is returned for malformed latitude/longitude pairs.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrDuplicateStop is returned when two stops share an identifier.
	ErrDuplicateStop = errors.New("duplicate stop identifier")
	// ErrRunNotFound is returned by run stores for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
)
