// Package worker drains the local queue in batches and hands each batch to
// the ingestion handler the way the SQS event source would.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/okian/acolyte/internal/adapters/mq/queue"
	"github.com/okian/acolyte/pkg/logger"
	"github.com/okian/acolyte/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultBatchSize         = 10
	defaultBatchWindow       = 200 * time.Millisecond
	defaultMaxReceiveCount   = 3
	defaultInvocationTimeout = 30 * time.Second
	defaultFunctionName      = "acolyte-ingest"
	poolShutdownTimeout      = 30 * time.Second
)

// BatchHandler processes one batch and returns the ids of the messages
// that failed. A non-nil error fails the whole batch.
type BatchHandler func(ctx context.Context, batch events.SQSEvent) (failed []string, err error)

// Queue defines how workers receive and return messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Message
	Requeue(ctx context.Context, m queue.Message) bool
	IsClosed() bool
	ARN() string
}

// DeadLetterSink receives messages that exhausted their receives.
type DeadLetterSink interface {
	Add(m queue.Message)
}

// Worker processes batches until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the batch in flight.
	Shutdown(ctx context.Context) error
}

// BatchWorker implements Worker.
type BatchWorker struct {
	queue   Queue
	handler BatchHandler
	dead    DeadLetterSink
	name    string

	batchSize         int
	batchWindow       time.Duration
	maxReceiveCount   int
	invocationTimeout time.Duration
	functionName      string

	batches atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewBatchWorker creates a worker with configuration options.
func NewBatchWorker(q Queue, handler BatchHandler, dead DeadLetterSink, opts ...Option) *BatchWorker {
	w := &BatchWorker{
		queue:             q,
		handler:           handler,
		dead:              dead,
		name:              "worker",
		batchSize:         defaultBatchSize,
		batchWindow:       defaultBatchWindow,
		maxReceiveCount:   defaultMaxReceiveCount,
		invocationTimeout: defaultInvocationTimeout,
		functionName:      defaultFunctionName,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Batches returns the number of batches handed to the handler.
func (w *BatchWorker) Batches() int64 { return w.batches.Load() }

// Run collects up to batchSize messages, waiting at most batchWindow after
// the first one, and processes the batch.
func (w *BatchWorker) Run(ctx context.Context) {
	defer close(w.done)

	msgs := w.queue.Dequeue(ctx)
	for {
		var first queue.Message
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			first = m
		}

		batch, closed := w.fill(ctx, msgs, first)
		w.processBatch(ctx, batch)
		if closed {
			return
		}
	}
}

func (w *BatchWorker) fill(ctx context.Context, msgs <-chan queue.Message, first queue.Message) ([]queue.Message, bool) {
	batch := []queue.Message{first}
	timer := time.NewTimer(w.batchWindow)
	defer timer.Stop()

	for len(batch) < w.batchSize {
		select {
		case m, ok := <-msgs:
			if !ok {
				return batch, true
			}
			batch = append(batch, m)
		case <-timer.C:
			return batch, false
		case <-ctx.Done():
			return batch, false
		}
	}
	return batch, false
}

// processBatch invokes the handler once and settles every message: acked,
// made visible again, or moved to the dead letters.
func (w *BatchWorker) processBatch(ctx context.Context, batch []queue.Message) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()
	w.batches.Add(1)

	ev := events.SQSEvent{Records: make([]events.SQSMessage, len(batch))}
	for i := range batch {
		batch[i].ReceiveCount++
		ev.Records[i] = batch[i].SQS(w.queue.ARN())
	}

	requestID := uuid.NewString()
	ictx, cancel := context.WithTimeout(ctx, w.invocationTimeout)
	defer cancel()
	ictx = lambdacontext.NewContext(ictx, &lambdacontext.LambdaContext{
		AwsRequestID:       requestID,
		InvokedFunctionArn: "arn:aws:lambda:local:000000000000:function:" + w.functionName,
	})

	failed, err := w.invoke(ictx, ev)
	if err != nil {
		w.logger.Warn(ctx, "batch failed; redelivering all messages",
			logger.String("requestId", requestID),
			logger.Int("messages", len(batch)),
			logger.Error(err),
		)
		for _, m := range batch {
			w.settleFailed(ctx, m)
		}
		return
	}

	failedIDs := make(map[string]struct{}, len(failed))
	for _, id := range failed {
		failedIDs[id] = struct{}{}
	}
	for _, m := range batch {
		if _, ok := failedIDs[m.ID]; ok {
			w.settleFailed(ctx, m)
		}
	}
	w.logger.Debug(ctx, "batch processed",
		logger.String("requestId", requestID),
		logger.Int("messages", len(batch)),
		logger.Int("failed", len(failedIDs)),
	)
}

// invoke runs the handler and turns a panic into a failed batch, the way
// a crashed function invocation is retried by SQS.
func (w *BatchWorker) invoke(ctx context.Context, ev events.SQSEvent) (failed []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return w.handler(ctx, ev)
}

func (w *BatchWorker) settleFailed(ctx context.Context, m queue.Message) {
	if m.ReceiveCount >= w.maxReceiveCount {
		w.dead.Add(m)
		w.logger.Error(ctx, "message moved to dead letters",
			logger.String("messageId", m.ID),
			logger.Int("receiveCount", m.ReceiveCount),
		)
		return
	}
	if !w.queue.Requeue(ctx, m) {
		if w.queue.IsClosed() {
			// Receives are left; only the shutdown keeps it from coming back.
			metrics.RecordErrorByComponent("worker", "dropped_on_shutdown")
			w.logger.Warn(ctx, "queue closed; failed message dropped",
				logger.String("messageId", m.ID),
				logger.Int("receiveCount", m.ReceiveCount),
			)
			return
		}
		w.dead.Add(m)
		metrics.RecordErrorByComponent("worker", "requeue_failed")
		w.logger.Error(ctx, "message could not be requeued; moved to dead letters",
			logger.String("messageId", m.ID),
		)
	}
}

// Shutdown stops the worker after the batch in flight.
func (w *BatchWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages multiple workers on one queue.
type Pool struct {
	workers []*BatchWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates workerCount workers sharing opts. One worker keeps
// per-key write order across batches.
func NewPool(workerCount int, q Queue, handler BatchHandler, dead DeadLetterSink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &Pool{
		workers: make([]*BatchWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewBatchWorker(q, handler, dead, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Batches returns the number of batches processed by all workers.
func (p *Pool) Batches() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Batches()
	}
	return n
}

// Shutdown closes the queue, lets the workers drain it and waits for them.
// Messages failing during the drain cannot be made visible again and are
// dropped, not dead-lettered.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
