package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/pkg/metrics"
)

// MemoryTable is the in-process record table used by the local stack.
type MemoryTable struct {
	mu    sync.RWMutex
	items map[int64]model.Item

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemoryTable)(nil)

// NewMemoryTable constructs an empty table and starts its metrics updater.
// The updater stops when ctx is done or Close is called.
func NewMemoryTable(ctx context.Context, opts ...Option) *MemoryTable {
	s := &MemoryTable{
		items:                 make(map[int64]model.Item),
		metricsUpdateInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *MemoryTable) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert. Last write wins.
func (s *MemoryTable) Upsert(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := item.Warrior().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()
	return nil
}

// Get implements Store.Get.
func (s *MemoryTable) Get(ctx context.Context, id int64) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Item{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return item, nil
}

// List implements Store.List.
func (s *MemoryTable) List(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	s.mu.RUnlock()
	sortItems(out)
	return out, nil
}

// Count returns the number of items.
func (s *MemoryTable) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryTable) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateTableItems(s.Count(ctx))
			}
		}
	}()
}

func sortItems(items []model.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
