package ingest

import (
	"time"

	"github.com/okian/acolyte/pkg/logger"
)

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithOpTimeout bounds each object read and table write. Zero leaves only
// the invocation deadline.
func WithOpTimeout(d time.Duration) Option {
	return func(in *Ingestor) {
		if d >= 0 {
			in.opTimeout = d
		}
	}
}

// WithDeadlineMargin sets how much of the invocation budget is kept back.
func WithDeadlineMargin(d time.Duration) Option {
	return func(in *Ingestor) {
		if d >= 0 {
			in.margin = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(in *Ingestor) {
		in.log = l
	}
}
