package rail

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnsupportedType is returned for recipients whose type selects no
	// known payment rail.
	ErrUnsupportedType = errors.New("Unsupported recipient type")

	// ErrInvalidAddress is returned when a recipient address does not
	// match the syntax its type requires.
	ErrInvalidAddress = errors.New("invalid address format")

	// ErrNoResolver is returned when a Lightning Address recipient is to
	// be paid but no invoice resolver is configured.
	ErrNoResolver = errors.New("invoice resolution not supported")

	// ErrInvoiceAmountMismatch is returned when a resolved invoice asks
	// for a different amount than was requested.
	ErrInvoiceAmountMismatch = errors.New("invoice amount mismatch")

	// ErrNoResult is returned when a rail reports neither an error nor a
	// result.
	ErrNoResult = errors.New("payment returned no result")
)

// Kind is the category of a rail failure.
type Kind uint8

const (
	// KindUnknown is a failure that matched no known category. Its raw
	// message is shown as-is.
	KindUnknown Kind = iota

	// KindRouteNotFound means no route to the recipient was found.
	KindRouteNotFound

	// KindInsufficientBalance means the wallet can't cover the payment.
	KindInsufficientBalance

	// KindTimeout means the rail itself reported a timeout.
	KindTimeout

	// KindRejected means the payment was rejected or cancelled, usually
	// by the user in their wallet.
	KindRejected

	// KindNetworkError means the wallet or the recipient's service could
	// not be reached.
	KindNetworkError

	// KindServerError means a remote service answered with an error.
	KindServerError

	// KindUnsupported means the wallet does not support the payment
	// method.
	KindUnsupported

	// KindInvalidAddress means the recipient address is malformed.
	KindInvalidAddress
)

// String returns a short name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRouteNotFound:
		return "route_not_found"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	case KindNetworkError:
		return "network_error"
	case KindServerError:
		return "server_error"
	case KindUnsupported:
		return "unsupported"
	case KindInvalidAddress:
		return "invalid_address"
	default:
		return "unknown"
	}
}

// message is the user-presentable text of a kind.
func (k Kind) message() string {
	switch k {
	case KindRouteNotFound:
		return "No route found to recipient"
	case KindInsufficientBalance:
		return "Insufficient balance"
	case KindTimeout:
		return "Payment timed out"
	case KindRejected:
		return "Payment was rejected or cancelled"
	case KindNetworkError:
		return "Network error, please check your connection"
	case KindServerError:
		return "Payment service returned an error"
	case KindUnsupported:
		return "Payment method not supported by wallet"
	case KindInvalidAddress:
		return "Invalid recipient address format"
	default:
		return ""
	}
}

// Error is a classified rail failure. Error() returns the normalized message
// while Raw keeps what the rail actually said.
type Error struct {
	// Kind is the failure category.
	Kind Kind

	// Raw is the original message.
	Raw string

	err error
}

// Error returns the user-presentable message.
func (e *Error) Error() string {
	if msg := e.Kind.message(); msg != "" {
		return msg
	}

	if e.Raw == "" {
		return "Unknown payment error"
	}

	return e.Raw
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// classifier maps a set of lower case substrings to a kind. The order of
// classifiers matters, the first match wins.
type classifier struct {
	kind    Kind
	needles []string
}

var classifiers = []classifier{
	{
		kind: KindRouteNotFound,
		needles: []string{
			"no route", "route not found", "unable to find a path",
			"no_route", "unable to route", "failure_reason_no_route",
		},
	},
	{
		kind: KindInsufficientBalance,
		needles: []string{
			"insufficient", "not enough balance", "balance too low",
			"not enough funds",
		},
	},
	{
		kind:    KindTimeout,
		needles: []string{"timeout", "timed out", "deadline exceeded"},
	},
	{
		kind: KindRejected,
		needles: []string{
			"rejected", "cancelled", "canceled", "denied",
			"declined",
		},
	},
	{
		kind: KindUnsupported,
		needles: []string{
			"not supported", "unsupported", "not implemented",
			"not_implemented", "method not found",
			"keysend is disabled",
		},
	},
	{
		kind: KindInvalidAddress,
		needles: []string{
			"invalid lightning address", "invalid address",
			"invalid pubkey", "invalid node", "invalid destination",
		},
	},
	{
		kind: KindServerError,
		needles: []string{
			"server error", "internal error", "status 500",
			"status 502", "status 503", "bad gateway",
			"service unavailable",
		},
	},
	{
		kind: KindNetworkError,
		needles: []string{
			"network", "failed to fetch", "connection refused",
			"connection reset", "no such host", "econnrefused",
			"offline",
		},
	},
}

// ClassifyMessage classifies a raw error message.
func ClassifyMessage(msg string) *Error {
	lower := strings.ToLower(msg)
	for _, c := range classifiers {
		for _, needle := range c.needles {
			if strings.Contains(lower, needle) {
				return &Error{Kind: c.kind, Raw: msg}
			}
		}
	}

	return &Error{Kind: KindUnknown, Raw: msg}
}

// Classify turns any error returned by a rail into a classified Error.
// Errors that already are classified are returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var railErr *Error
	if errors.As(err, &railErr) {
		return railErr
	}

	var classified *Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		classified = &Error{Kind: KindTimeout, Raw: err.Error()}

	case errors.Is(err, context.Canceled):
		classified = &Error{Kind: KindRejected, Raw: err.Error()}

	// Shown verbatim.
	case errors.Is(err, ErrUnsupportedType):
		classified = &Error{Kind: KindUnknown, Raw: err.Error()}

	case errors.Is(err, ErrInvalidAddress):
		classified = &Error{Kind: KindInvalidAddress, Raw: err.Error()}

	case errors.Is(err, ErrNoResolver):
		classified = &Error{Kind: KindUnsupported, Raw: err.Error()}

	default:
		classified = ClassifyMessage(err.Error())
	}
	classified.err = err

	return classified
}
