// Package repository stores warrior records keyed by id.
package repository

import (
	"context"

	"github.com/okian/acolyte/internal/domain/model"
)

// Store provides read/write access to the record table.
type Store interface {
	// Upsert inserts item or overwrites the item with the same id.
	Upsert(ctx context.Context, item model.Item) error

	// Get returns the item with id, or ErrNotFound.
	Get(ctx context.Context, id int64) (model.Item, error)

	// List returns every item ordered by id.
	List(ctx context.Context) ([]model.Item, error)
}
