package smoke

import "errors"

// Sentinel kinds for failed runs.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNotIngested      = errors.New("records not ingested in time")
	ErrMismatch         = errors.New("record mismatch")
)
