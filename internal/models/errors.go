package models

import "errors"

// Sentinel error kinds. Packages wrap these with %w so callers can route on
// the kind with errors.Is without parsing messages.
var (
	// ErrConfiguration marks invalid analysis parameters (window size,
	// thresholds, onset frame). Fatal: nothing is processed.
	ErrConfiguration = errors.New("configuration error")

	// ErrData marks malformed or out-of-range observations. Fatal for the
	// affected dataset; never retried.
	ErrData = errors.New("data error")
)
