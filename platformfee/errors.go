package platformfee

import "errors"

var (
	// ErrNegativeFee is returned for a negative flat fee.
	ErrNegativeFee = errors.New("flat fee must not be negative")

	// ErrInvalidFeeRate is returned for a fee rate outside of [0, 1).
	ErrInvalidFeeRate = errors.New("fee rate must be in [0, 1)")

	// ErrAddressRequired is returned when a fee is configured without an
	// address to pay it to.
	ErrAddressRequired = errors.New("fee address is required")

	// ErrInvalidAddress is returned when the fee address doesn't match the
	// configured recipient type.
	ErrInvalidAddress = errors.New("invalid fee address")
)
