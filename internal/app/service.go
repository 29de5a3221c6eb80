// Package service composes the local stack: an in-memory bucket whose
// create notifications feed an in-memory queue, drained in batches by the
// same SQS handler the ingestion function runs, into an in-memory table.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"

	"github.com/okian/acolyte/internal/adapters/gateway"
	"github.com/okian/acolyte/internal/adapters/http/api"
	"github.com/okian/acolyte/internal/adapters/mq/consumer"
	eventqueue "github.com/okian/acolyte/internal/adapters/mq/queue"
	workerpool "github.com/okian/acolyte/internal/adapters/mq/worker"
	"github.com/okian/acolyte/internal/adapters/objectstore"
	repository "github.com/okian/acolyte/internal/adapters/repository"
	"github.com/okian/acolyte/internal/config"
	"github.com/okian/acolyte/internal/domain/dedupe"
	"github.com/okian/acolyte/internal/domain/ingest"
	"github.com/okian/acolyte/internal/domain/seed"
	"github.com/okian/acolyte/pkg/logger"
	"github.com/okian/acolyte/pkg/metrics"
)

// ErrNotStarted is returned by the gateway handlers before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the local stack.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	objects  *objectstore.MemoryStore
	queue    *eventqueue.InMemoryQueue
	dead     *eventqueue.DeadLetters
	table    *repository.MemoryTable
	deduper  dedupe.Deduper
	seeder   *seed.Seeder
	ingestor *ingest.Ingestor
	consumer *consumer.Handler
	pool     *workerpool.Pool

	seedHandler    *gateway.SeedHandler
	recordsHandler *gateway.RecordsHandler

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the whole configuration. Apply it before the
// narrower options.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			c := *cfg
			s.cfg = &c
		}
	}
}

// WithWorkerCount sets the number of queue consumers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.cfg.WorkerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cfg.QueueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cfg.DedupeSize = size
		}
	}
}

// WithFailureMode sets how ingestion faults reach the queue.
func WithFailureMode(mode string) Option {
	return func(s *Service) {
		if mode != "" {
			s.cfg.FailureMode = mode
		}
	}
}

// WithBatchWindowMS sets how long a consumer waits to fill a batch.
func WithBatchWindowMS(ms int) Option {
	return func(s *Service) {
		if ms > 0 {
			s.cfg.BatchWindowMS = ms
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New(context.Background())}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the consumers. The consumers run
// until ctx is canceled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.cfg.Validate(ctx); err != nil {
		return err
	}

	roster, err := seed.ReadRoster(s.cfg.RosterFile)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "starting local stack...")

	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.cfg.QueueSize),
		eventqueue.WithBufferSize(s.cfg.QueueSize),
	)
	s.dead = eventqueue.NewDeadLetters()
	s.objects = objectstore.NewMemoryStore(s.cfg.Bucket, objectstore.WithPublisher(s.queue))
	s.table = repository.NewMemoryTable(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))

	s.seeder = seed.New(s.objects,
		seed.WithRoster(roster),
		seed.WithSeedKey(s.cfg.SeedKey),
		seed.WithUploadPrefix(s.cfg.UploadPrefix),
	)
	s.ingestor = ingest.New(s.objects, s.table,
		ingest.WithOpTimeout(s.cfg.OpTimeout()),
		ingest.WithDeadlineMargin(s.cfg.DeadlineMargin()),
	)
	h, err := consumer.New(s.ingestor,
		consumer.WithFailureMode(s.cfg.FailureMode),
		consumer.WithDeduper(s.deduper),
	)
	if err != nil {
		_ = s.table.Close()
		_ = s.queue.Close()
		return err
	}
	s.consumer = h

	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, s.handleBatch, s.dead,
		workerpool.WithBatchSize(s.cfg.BatchSize),
		workerpool.WithBatchWindow(s.cfg.BatchWindow()),
		workerpool.WithMaxReceiveCount(s.cfg.MaxReceiveCount),
	)
	s.pool.Start(ctx)

	s.seedHandler = gateway.NewSeedHandler(s.seeder, gateway.SeedCORS(s.cfg.CORSAllowOrigin, s.cfg.CORSAllowCredentials))
	s.recordsHandler = gateway.NewRecordsHandler(s.table, gateway.RecordsCORS(s.cfg.CORSAllowOrigin, s.cfg.CORSAllowCredentials))

	s.started = true
	s.logger.Info(ctx, "local stack started",
		logger.String("bucket", s.cfg.Bucket),
		logger.String("failureMode", s.cfg.FailureMode),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("batchSize", s.cfg.BatchSize),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
	)
	return nil
}

// Stop closes the queue, waits for the consumers to drain it and releases
// the table.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping local stack...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	if err := s.table.Close(); err != nil {
		s.logger.Error(ctx, "table close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "local stack stopped")
}

// handleBatch adapts the SQS handler to the worker contract.
func (s *Service) handleBatch(ctx context.Context, batch events.SQSEvent) ([]string, error) {
	resp, err := s.consumer.Handle(ctx, batch)
	if err != nil {
		return nil, err
	}
	return resp.FailedIDs(), nil
}

// SeedHandler returns the /warriors proxy handler.
func (s *Service) SeedHandler() api.ProxyHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		s.mu.RLock()
		h := s.seedHandler
		started := s.started
		s.mu.RUnlock()
		if !started {
			return events.APIGatewayProxyResponse{}, ErrNotStarted
		}
		return h.Handle(ctx, req)
	}
}

// RecordsHandler returns the /records proxy handler.
func (s *Service) RecordsHandler() api.ProxyHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		s.mu.RLock()
		h := s.recordsHandler
		started := s.started
		s.mu.RUnlock()
		if !started {
			return events.APIGatewayProxyResponse{}, ErrNotStarted
		}
		return h.Handle(ctx, req)
	}
}

// Objects exposes the bucket, e.g. to drop objects in by hand.
func (s *Service) Objects() *objectstore.MemoryStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects
}

// Queue exposes the notification queue.
func (s *Service) Queue() *eventqueue.InMemoryQueue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue
}

// DeadLetters returns the messages that exhausted their receives.
func (s *Service) DeadLetters() []eventqueue.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dead == nil {
		return nil
	}
	return s.dead.List()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"bucket":      s.cfg.Bucket,
		"failureMode": s.cfg.FailureMode,
		"workerCount": s.cfg.WorkerCount,
		"batchSize":   s.cfg.BatchSize,
		"queueSize":   s.cfg.QueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		tableItems := s.table.Count(ctx)

		stats["queueLength"] = queueLen
		stats["deadLetters"] = s.dead.Len()
		stats["objects"] = len(s.objects.Keys())
		stats["tableItems"] = tableItems
		stats["dedupeEntries"] = s.deduper.Size()
		stats["batches"] = s.pool.Batches()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTableItems(tableItems)
		metrics.UpdateWorkerCount(s.cfg.WorkerCount)
	}

	return stats
}
