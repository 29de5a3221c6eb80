package seed

import (
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/pkg/logger"
)

// Option configures a Seeder.
type Option func(*Seeder)

// WithRoster replaces the default roster.
func WithRoster(roster []model.Warrior) Option {
	return func(s *Seeder) {
		if roster != nil {
			s.roster = append([]model.Warrior(nil), roster...)
		}
	}
}

// WithSeedKey sets the well-known object key.
func WithSeedKey(key string) Option {
	return func(s *Seeder) {
		if key != "" {
			s.seedKey = key
		}
	}
}

// WithUploadPrefix sets the prefix of per-upload keys.
func WithUploadPrefix(prefix string) Option {
	return func(s *Seeder) {
		s.uploadPrefix = prefix
	}
}

// WithIDGenerator replaces the per-upload key generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Seeder) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Seeder) {
		s.log = l
	}
}
