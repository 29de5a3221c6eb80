// Package ingest turns object create notifications into record upserts.
//
// One object moves through READING_OBJECT, PARSING and UPSERTING in order;
// any step can fail, and the failure is returned as a Result carrying the
// fault kind. Mapping a failed Result onto the queue is left to the caller.
package ingest

import (
	"context"
	"time"

	"github.com/okian/acolyte/internal/domain/faults"
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/pkg/logger"
	"github.com/okian/acolyte/pkg/metrics"
)

// ObjectReader reads a whole object. An existing object without a body
// yields an empty slice and no error.
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// RecordWriter inserts or overwrites an item keyed by its id.
type RecordWriter interface {
	Upsert(ctx context.Context, item model.Item) error
}

// Ingestor processes queue message bodies sequentially.
type Ingestor struct {
	objects   ObjectReader
	records   RecordWriter
	opTimeout time.Duration
	margin    time.Duration
	log       logger.Logger
}

// New creates an Ingestor.
func New(objects ObjectReader, records RecordWriter, opts ...Option) *Ingestor {
	in := &Ingestor{
		objects:   objects,
		records:   records,
		opTimeout: 5 * time.Second,
		margin:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.log == nil {
		in.log = logger.Named("ingest")
	}
	return in
}

// ProcessMessage handles one queue message body. Test events and
// envelopes without create events are acknowledged with an empty body.
// When a message names several objects the last object's text is returned.
func (in *Ingestor) ProcessMessage(ctx context.Context, body string) Result {
	const op = "ingest.notification"
	evs, err := model.ParseNotification(body)
	if err != nil {
		return in.fail(faults.WrapKind(op, faults.ErrParse, err), 0, 0)
	}
	if len(evs) == 0 {
		in.log.Debug(ctx, "message carries no object events")
		return ok(emptyBody, 0, 0)
	}

	res := ok(emptyBody, 0, 0)
	upserted := 0
	for _, ev := range evs {
		r := in.ProcessObject(ctx, ev)
		upserted += r.Upserted
		if !r.OK() {
			r.Objects = res.Objects
			r.Upserted = upserted
			return r
		}
		res = ok(r.Body, res.Objects+1, upserted)
	}
	return res
}

// ProcessObject reads one object and upserts its records in payload order.
func (in *Ingestor) ProcessObject(ctx context.Context, ev model.UploadEvent) Result {
	log := in.log.With(logger.String("bucket", ev.Bucket), logger.String("key", ev.Key))

	body, err := in.read(ctx, ev)
	if err != nil {
		return in.fail(err, 0, 0)
	}
	if len(body) == 0 {
		metrics.RecordObjectEmpty()
		log.Info(ctx, "object has no body")
		return ok(emptyBody, 1, 0)
	}

	warriors, err := model.ParsePayload(body)
	if err != nil {
		return in.fail(faults.WrapKind("ingest.parse", faults.ErrParse, err), 0, 0)
	}

	for i, w := range warriors {
		if err := in.upsert(ctx, w.Item()); err != nil {
			return in.fail(err, 0, i)
		}
	}
	log.Info(ctx, "object ingested", logger.Int("records", len(warriors)))
	return ok(string(body), 1, len(warriors))
}

func (in *Ingestor) read(ctx context.Context, ev model.UploadEvent) ([]byte, error) {
	const op = "ingest.read"
	octx, cancel, err := in.bound(ctx)
	if err != nil {
		return nil, faults.WrapKind(op, faults.ErrStorageRead, err)
	}
	defer cancel()

	start := time.Now()
	body, err := in.objects.GetObject(octx, ev.Bucket, ev.Key)
	if err != nil {
		return nil, faults.WrapKind(op, faults.ErrStorageRead, err)
	}
	metrics.RecordObjectRead(float64(time.Since(start).Milliseconds()))
	return body, nil
}

func (in *Ingestor) upsert(ctx context.Context, item model.Item) error {
	const op = "ingest.upsert"
	octx, cancel, err := in.bound(ctx)
	if err != nil {
		return faults.WrapKind(op, faults.ErrWrite, err)
	}
	defer cancel()

	start := time.Now()
	if err := in.records.Upsert(octx, item); err != nil {
		return faults.WrapKind(op, faults.ErrWrite, err)
	}
	metrics.RecordUpsert(float64(time.Since(start).Milliseconds()))
	return nil
}

// bound derives the context of one I/O call: opTimeout, shortened to the
// remaining invocation budget minus the margin. A budget already spent is
// reported as context.DeadlineExceeded without starting the call.
func (in *Ingestor) bound(ctx context.Context) (context.Context, context.CancelFunc, error) {
	timeout := in.opTimeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline) - in.margin
		if left <= 0 {
			return nil, nil, context.DeadlineExceeded
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		octx, cancel := context.WithCancel(ctx)
		return octx, cancel, nil
	}
	octx, cancel := context.WithTimeout(ctx, timeout)
	return octx, cancel, nil
}

func (in *Ingestor) fail(err error, objects, upserted int) Result {
	metrics.RecordFault(faults.Label(err))
	r := Failed(err)
	r.Objects = objects
	r.Upserted = upserted
	return r
}
