package services

import "errors"

// Dataset service errors
var (
	// Source errors
	ErrSourceUnavailable = errors.New("source file unavailable")

	// Build errors
	ErrBuildFailed = errors.New("dataset build failed")

	// Query errors
	ErrUnknownColumn    = errors.New("unknown column")
	ErrColumnNotNumeric = errors.New("column is not numeric")
	ErrUnknownLabel     = errors.New("unknown label column")
)
