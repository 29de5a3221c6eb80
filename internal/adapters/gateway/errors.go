package gateway

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
