// Package consumer is the SQS entry point of the ingestion function.
//
// It dedupes deliveries by message id, hands each message body to the
// ingestor in order and maps failed results onto the queue according to
// the configured failure mode.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/smithy-go"

	"github.com/okian/acolyte/internal/config"
	"github.com/okian/acolyte/internal/domain/dedupe"
	"github.com/okian/acolyte/internal/domain/faults"
	"github.com/okian/acolyte/internal/domain/ingest"
	"github.com/okian/acolyte/pkg/logger"
	"github.com/okian/acolyte/pkg/metrics"
)

// ErrUnknownMode is returned for a failure mode other than signal, report or swallow.
var ErrUnknownMode = errors.New("unknown failure mode")

// Processor ingests one queue message body.
type Processor interface {
	ProcessMessage(ctx context.Context, body string) ingest.Result
}

// Response is the invocation result. BatchItemFailures follows the SQS
// partial batch response contract; StatusCode and Body report the outcome
// of the batch.
type Response struct {
	StatusCode        int                          `json:"statusCode"`
	Body              string                       `json:"body"`
	BatchItemFailures []events.SQSBatchItemFailure `json:"batchItemFailures"`
}

// FailedIDs lists the message ids reported as failed.
func (r Response) FailedIDs() []string {
	ids := make([]string, len(r.BatchItemFailures))
	for i, f := range r.BatchItemFailures {
		ids[i] = f.ItemIdentifier
	}
	return ids
}

// Handler processes SQS batches.
type Handler struct {
	proc   Processor
	seen   dedupe.Deduper
	mode   string
	logger logger.Logger
}

// New creates a Handler. The failure mode defaults to signal.
func New(proc Processor, opts ...Option) (*Handler, error) {
	h := &Handler{
		proc: proc,
		mode: config.FailureSignal,
	}
	for _, opt := range opts {
		opt(h)
	}
	switch h.mode {
	case config.FailureSignal, config.FailureReport, config.FailureSwallow:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, h.mode)
	}
	if h.logger == nil {
		h.logger = logger.Named("consumer")
	}
	return h, nil
}

// Handle processes the batch in message order.
//
// signal: the first fault is returned as the invocation error and the whole
// batch is redelivered; messages already applied are skipped as duplicates.
// report: faulted messages are listed in BatchItemFailures.
// swallow: every message is still processed, the first fault is returned
// as a 500 value and the batch is acked.
func (h *Handler) Handle(ctx context.Context, ev events.SQSEvent) (Response, error) {
	log := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		log = log.With(logger.String("requestId", lc.AwsRequestID))
	}
	metrics.RecordBatch(len(ev.Records))

	if len(ev.Records) == 0 {
		res := ingest.EmptyBatch()
		log.Debug(ctx, "nothing to ingest", logger.Error(faults.ErrEmptyBatch))
		return Response{StatusCode: res.StatusCode, Body: res.Body}, nil
	}

	out := Response{StatusCode: http.StatusOK, Body: "{}"}
	var swallowed *ingest.Result
	for _, msg := range ev.Records {
		if h.seen != nil && h.seen.SeenAndRecord(ctx, msg.MessageId) {
			metrics.RecordMessageDuplicate()
			log.Info(ctx, "duplicate delivery skipped", logger.String("messageId", msg.MessageId))
			continue
		}

		res := h.proc.ProcessMessage(ctx, msg.Body)
		if res.OK() {
			metrics.RecordMessageProcessed()
			if res.Objects > 0 || out.Body == "{}" {
				out.Body = res.Body
			}
			continue
		}

		if h.seen != nil {
			h.seen.Unrecord(ctx, msg.MessageId)
		}
		h.logFault(ctx, log, msg, res.Err)

		switch h.mode {
		case config.FailureReport:
			out.StatusCode = res.StatusCode
			out.Body = res.Body
			out.BatchItemFailures = append(out.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
		case config.FailureSwallow:
			if swallowed == nil {
				swallowed = &res
			}
		default:
			return Response{}, fmt.Errorf("message %s: %w", msg.MessageId, res.Err)
		}
	}
	if swallowed != nil {
		return Response{StatusCode: swallowed.StatusCode, Body: swallowed.Body}, nil
	}
	return out, nil
}

func (h *Handler) logFault(ctx context.Context, log logger.Logger, msg events.SQSMessage, err error) {
	fields := []logger.Field{
		logger.String("messageId", msg.MessageId),
		logger.String("kind", faults.Label(err)),
		logger.String("mode", h.mode),
		logger.Bool("retryable", h.mode != config.FailureSwallow),
		logger.Error(err),
	}
	if n := msg.Attributes["ApproximateReceiveCount"]; n != "" {
		fields = append(fields, logger.String("receiveCount", n))
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			logger.String("awsErrorCode", apiErr.ErrorCode()),
			logger.String("awsFault", apiErr.ErrorFault().String()),
		)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		fields = append(fields, logger.Bool("deadlineExceeded", true))
	}
	metrics.RecordErrorByComponent("consumer", faults.Label(err))
	log.Error(ctx, "ingestion failed", fields...)
}
