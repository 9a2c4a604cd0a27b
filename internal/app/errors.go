package service

import "errors"

// Sentinel error kinds for reconciliation passes.
var (
	// ErrLoadFailure aborts a pass: the source or the ledger could not be
	// read and nothing was written.
	ErrLoadFailure = errors.New("load failure")
	// ErrValidationFailure marks a source row skipped before matching.
	ErrValidationFailure = errors.New("validation failure")
	// ErrWriteFailure marks a single rejected ledger write. The pass continues.
	ErrWriteFailure = errors.New("ledger write failed")
	// ErrPassInProgress is returned when a pass is requested while one runs.
	ErrPassInProgress = errors.New("reconciliation pass already in progress")
	// ErrNotStarted is returned when Run is called before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
	// ErrUnknownJob names a job missing from the roster.
	ErrUnknownJob = errors.New("unknown sync job")
	// ErrReportFailure means the pass finished but its report file could not
	// be written.
	ErrReportFailure = errors.New("report write failed")
)
