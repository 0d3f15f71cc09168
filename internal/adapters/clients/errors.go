// Package clients provides the instrumented HTTP client used to talk to a
// remote quote board.
package clients

import "errors"

// Transport-level failures. The acl package translates them to domain errors.
var (
	// ErrCircuitOpen means the breaker rejected the call without sending it.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure after all attempts.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
