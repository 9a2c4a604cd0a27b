package repository

import "errors"

// Sentinel kinds for source store errors.
var (
	ErrUnknownPurpose = errors.New("no source query registered for purpose")
	ErrQuery          = errors.New("source query failed")
	ErrUnknownDriver  = errors.New("unsupported source driver")
)
