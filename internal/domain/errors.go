package domain

import "errors"

var (
	// ErrMissingIdentifier is returned when a raw record carries no usable MMSI.
	ErrMissingIdentifier = errors.New("record has no usable mmsi")

	// ErrInvalidParameters is returned when an analysis is asked for with
	// non-positive sizes (horizon, interval, window width, berth count).
	ErrInvalidParameters = errors.New("invalid parameters")
)
