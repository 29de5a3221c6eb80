// Package queue is an in-memory stand-in for the SQS queue between the
// object store notifications and the ingestion function.
//
// Delivery is at least once: a message handed out by Dequeue is gone from
// the queue, and the consumer puts it back with Requeue when the batch it
// was in failed.
package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/okian/acolyte/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
	defaultQueueARN      = "arn:aws:sqs:local:000000000000:acolyte-warriors"
)

// Message is one queued notification.
type Message struct {
	ID           string
	Body         string
	SentAt       time.Time
	ReceiveCount int
}

// SQS renders the message the way the SQS event source hands it to a
// function. ReceiveCount must already include the current delivery.
func (m Message) SQS(queueARN string) events.SQSMessage {
	return events.SQSMessage{
		MessageId:     m.ID,
		ReceiptHandle: m.ID + "#" + strconv.Itoa(m.ReceiveCount),
		Body:          m.Body,
		Attributes: map[string]string{
			"ApproximateReceiveCount": strconv.Itoa(m.ReceiveCount),
			"SentTimestamp":           strconv.FormatInt(m.SentAt.UnixMilli(), 10),
		},
		EventSource:    "aws:sqs",
		EventSourceARN: queueARN,
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a message. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, m Message) bool

	// Dequeue returns a channel that receives messages as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Message

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages   chan Message
	capacity   int
	bufferSize int
	arn        string

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
		arn:        defaultQueueARN,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}
	q.messages = make(chan Message, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// ARN identifies the queue in rendered SQS messages.
func (q *InMemoryQueue) ARN() string { return q.arn }

// Publish enqueues a notification body under a fresh message id.
func (q *InMemoryQueue) Publish(ctx context.Context, body string) error {
	if q.IsClosed() {
		return ErrClosed
	}
	if !q.Enqueue(ctx, Message{ID: uuid.NewString(), Body: body, SentAt: time.Now()}) {
		return ErrFull
	}
	return nil
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.messages) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.messages <- m:
		metrics.RecordQueueEnqueue()
		q.updateGauges(len(q.messages))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Requeue makes a message from a failed batch visible again.
func (q *InMemoryQueue) Requeue(ctx context.Context, m Message) bool {
	if !q.Enqueue(ctx, m) {
		return false
	}
	metrics.RecordRedelivery()
	return true
}

// Dequeue returns a channel that will receive messages as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case m, ok := <-q.messages:
				if !ok {
					return
				}
				select {
				case out <- m:
					metrics.RecordQueueDequeue()
					q.updateGauges(len(q.messages))
				case <-ctx.Done():
					// Put it back so a message is never lost to a cancelled reader.
					q.Enqueue(context.Background(), m)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.messages)
	q.updateGauges(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting messages. Messages already queued are still
// handed out before the dequeue channel closes.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.messages)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges(size int) {
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// DeadLetters keeps messages that exhausted their receives.
type DeadLetters struct {
	mu       sync.RWMutex
	messages []Message
}

// NewDeadLetters creates an empty dead-letter list.
func NewDeadLetters() *DeadLetters {
	return &DeadLetters{}
}

// Add records m as dead.
func (d *DeadLetters) Add(m Message) {
	d.mu.Lock()
	d.messages = append(d.messages, m)
	d.mu.Unlock()
	metrics.RecordDeadLetter()
}

// List returns a copy of the dead messages in arrival order.
func (d *DeadLetters) List() []Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Message(nil), d.messages...)
}

// Len returns the number of dead messages.
func (d *DeadLetters) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.messages)
}
