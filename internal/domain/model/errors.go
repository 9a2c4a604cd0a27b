package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrUnknownField = errors.New("unknown field")
)
