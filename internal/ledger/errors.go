package ledger

import (
	"errors"
	"fmt"
)

// ErrResponseTooLarge is returned when a response body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is returned when the node answers a height query with a non-2xx status.
type StatusError struct {
	Method     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Method, e.StatusCode)
}
