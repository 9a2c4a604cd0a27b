package ledger

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ledger errors.
var (
	ErrUnknownColumn = errors.New("unknown ledger field")
	ErrNotFound      = errors.New("ledger record not found")
	ErrUnavailable   = errors.New("ledger unavailable")
)

// APIError is a non-2xx answer from the ledger API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ledger api: %d %s", e.Status, e.Type)
	}
	return fmt.Sprintf("ledger api: %d %s: %s", e.Status, e.Type, e.Message)
}

// Retryable reports whether a read that failed this way may be retried.
func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
