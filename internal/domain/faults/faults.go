// Package faults defines the fault kinds of the ingestion pipeline and the
// helpers used to attach an operation name and a kind to an error.
//
// Callers classify with errors.Is against the sentinel kinds; the wrapped
// cause stays reachable through errors.As.
package faults

import (
	"errors"
	"strings"
)

// Sentinel fault kinds.
var (
	// ErrStorageRead: the object store read failed (network, permissions, missing key).
	ErrStorageRead = errors.New("storage read fault")
	// ErrStorageWrite: the object store write failed (seed path).
	ErrStorageWrite = errors.New("storage write fault")
	// ErrParse: the notification or the object body is not well-formed or has the wrong shape.
	ErrParse = errors.New("parse fault")
	// ErrWrite: the record table upsert failed.
	ErrWrite = errors.New("write fault")
	// ErrEmptyBatch is not a failure; the batch carried no records.
	ErrEmptyBatch = errors.New("empty batch")
)

var kinds = []error{ErrStorageRead, ErrStorageWrite, ErrParse, ErrWrite, ErrEmptyBatch}

// Error carries the failing operation, its kind and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind for op without a further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind attaches op and kind to err. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the sentinel kind of err, or nil if err has none.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Label returns the metric/log label of err's kind.
func Label(err error) string {
	switch KindOf(err) {
	case ErrStorageRead:
		return "storage_read"
	case ErrStorageWrite:
		return "storage_write"
	case ErrParse:
		return "parse"
	case ErrWrite:
		return "write"
	case ErrEmptyBatch:
		return "empty_batch"
	default:
		return "unknown"
	}
}
