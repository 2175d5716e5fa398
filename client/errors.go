package client

import "errors"

var (
	// ErrInvalidAmount is returned for a boost amount that isn't positive.
	ErrInvalidAmount = errors.New("boost amount must be positive")

	// ErrNoPayer is returned when a boost is requested without any payment
	// rail.
	ErrNoPayer = errors.New("at least one payment rail is required")

	// ErrUnknownNetwork is returned for an unsupported network name.
	ErrUnknownNetwork = errors.New("unknown network")
)
