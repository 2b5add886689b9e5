package models

import "errors"

var (
	// ErrInvalidInput marks a contract violation by the caller, as opposed to
	// degraded data, which never produces an error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClientNotFound is returned when a client id is not in the portfolio set.
	ErrClientNotFound = errors.New("client not found")
)
