package consumer

import (
	"github.com/okian/acolyte/internal/domain/dedupe"
	"github.com/okian/acolyte/pkg/logger"
)

// Option configures a Handler.
type Option func(*Handler)

// WithFailureMode selects signal, report or swallow.
func WithFailureMode(mode string) Option {
	return func(h *Handler) {
		if mode != "" {
			h.mode = mode
		}
	}
}

// WithDeduper skips message ids that were already processed.
func WithDeduper(d dedupe.Deduper) Option {
	return func(h *Handler) {
		h.seen = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}
