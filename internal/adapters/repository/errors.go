package repository

import "errors"

// Sentinel kinds for record table errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidItem = errors.New("invalid record item")
)
