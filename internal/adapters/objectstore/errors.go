package objectstore

import "errors"

// Sentinel kinds for object store errors.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrBucketNotFound = errors.New("bucket not found")
)
