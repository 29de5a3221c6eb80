// Package seed writes record lists to the object store as one JSON object.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/acolyte/internal/domain/faults"
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/internal/domain/types"
	"github.com/okian/acolyte/pkg/logger"
	"github.com/okian/acolyte/pkg/metrics"
)

// ObjectWriter stores one object and acknowledges the write.
type ObjectWriter interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (model.ObjectRef, error)
}

// DefaultRoster returns the roster written by a plain seed request.
func DefaultRoster() []model.Warrior {
	return []model.Warrior{
		{ID: 1, Name: "Kane", FightsWon: 20, FightsLoss: 5},
		{ID: 2, Name: "Rock", FightsWon: 50, FightsLoss: 10},
		{ID: 3, Name: "John", FightsWon: 30, FightsLoss: 15},
		{ID: 4, Name: "Alberto", FightsWon: 10, FightsLoss: 20},
		{ID: 5, Name: "Orton", FightsWon: 17, FightsLoss: 7},
	}
}

// Seeder serializes warriors and writes exactly one object per call.
type Seeder struct {
	store        ObjectWriter
	roster       []model.Warrior
	seedKey      string
	uploadPrefix string
	newID        func() string
	log          logger.Logger
}

// New creates a Seeder writing through store.
func New(store ObjectWriter, opts ...Option) *Seeder {
	s := &Seeder{
		store:        store,
		roster:       DefaultRoster(),
		seedKey:      "ACOLYTE_WARRIORS",
		uploadPrefix: "uploads/",
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("seed")
	}
	return s
}

// Roster returns a copy of the configured default roster.
func (s *Seeder) Roster() []model.Warrior {
	return append([]model.Warrior(nil), s.roster...)
}

// SeedDefault writes the configured roster at the well-known key.
func (s *Seeder) SeedDefault(ctx context.Context) (types.SeedAck, error) {
	return s.Seed(ctx, s.Roster())
}

// Seed writes warriors at the well-known key. Concurrent calls race on that
// key and the last writer wins.
func (s *Seeder) Seed(ctx context.Context, warriors []model.Warrior) (types.SeedAck, error) {
	return s.write(ctx, "seed.put", s.seedKey, warriors)
}

// Upload writes warriors under a fresh per-upload key so concurrent uploads
// never overwrite each other.
func (s *Seeder) Upload(ctx context.Context, warriors []model.Warrior) (types.SeedAck, error) {
	key := s.uploadPrefix + s.newID() + ".json"
	return s.write(ctx, "seed.upload", key, warriors)
}

func (s *Seeder) write(ctx context.Context, op, key string, warriors []model.Warrior) (types.SeedAck, error) {
	for i, w := range warriors {
		if err := w.Validate(); err != nil {
			return types.SeedAck{}, faults.WrapKind(op, faults.ErrParse, fmt.Errorf("element %d: %w", i, err))
		}
	}
	body, err := model.EncodePayload(warriors)
	if err != nil {
		return types.SeedAck{}, faults.WrapKind(op, faults.ErrParse, err)
	}

	ref, err := s.store.PutObject(ctx, key, body, model.ContentType)
	if err != nil {
		metrics.RecordSeedError()
		s.log.Error(ctx, "seed write failed", logger.String("key", key), logger.Error(err))
		return types.SeedAck{}, faults.WrapKind(op, faults.ErrStorageWrite, err)
	}
	metrics.RecordSeedWritten(len(warriors))
	s.log.Info(ctx, "seed object written",
		logger.String("bucket", ref.Bucket),
		logger.String("key", ref.Key),
		logger.String("etag", strings.Trim(ref.ETag, `"`)),
		logger.Int("records", len(warriors)),
	)
	return types.NewSeedAck(ref, warriors), nil
}
