package exchange

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an exchange failure by the recovery policy it implies
// (§7 of the spec), not by transport or HTTP status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransient
	KindAuth
	KindBadSymbol
	KindFilterReject
	KindInsufficientBalance
	KindOverAllocation
	KindProviderUnavailable
	KindCorrupt
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindBadSymbol:
		return "bad_symbol"
	case KindFilterReject:
		return "filter_reject"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindOverAllocation:
		return "over_allocation"
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error wraps an underlying exchange failure with its recovery Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("exchange: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a raw error from the underlying Binance client into a Kind,
// following the same substring-matching approach the retry client in the
// pack uses for transient detection, extended with the Binance-specific
// codes that show up in error bodies (e.g. "-2010", "-1121").
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var exErr *Error
	if errors.As(err, &exErr) {
		return exErr
	}

	msg := strings.ToLower(err.Error())
	kind := KindUnknown

	switch {
	case containsAny(msg, "timeout", "i/o timeout", "connection refused", "connection reset",
		"temporary failure", "temporarily unavailable", "rate limit", "429", "502", "503", "504",
		"network", "dns", "no such host", "deadline exceeded", "broken pipe", "eof"):
		kind = KindTransient
	case containsAny(msg, "-2015", "-2014", "-1022", "invalid api-key", "signature", "unauthorized", "401", "403"):
		kind = KindAuth
	case containsAny(msg, "-1121", "invalid symbol"):
		kind = KindBadSymbol
	case containsAny(msg, "-1013", "-2010", "lot_size", "min_notional", "price_filter", "filter failure"):
		kind = KindFilterReject
	case containsAny(msg, "insufficient balance", "account has insufficient"):
		kind = KindInsufficientBalance
	case containsAny(msg, "500", "service unavailable", "maintenance"):
		kind = KindProviderUnavailable
	}

	return &Error{Kind: kind, Op: op, Err: err}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
