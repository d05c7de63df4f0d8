package client

import (
	"errors"
)

var (
	// ErrNotFound marks a product id the catalog does not know: a 404, any
	// other 4xx, or an empty 200 body.
	ErrNotFound = errors.New("product not found")
	// ErrUnavailable marks a transient failure: transport error, timeout,
	// 5xx, undecodable body or an open circuit breaker.
	ErrUnavailable = errors.New("catalog unavailable")
)

const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
)

// Outcome classifies err into one of the Outcome constants. Errors outside
// the taxonomy are reported as unavailable.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeUnavailable
	}
}
