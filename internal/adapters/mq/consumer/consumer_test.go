package consumer_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/smithy-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/acolyte/internal/adapters/mq/consumer"
	"github.com/okian/acolyte/internal/adapters/objectstore"
	"github.com/okian/acolyte/internal/adapters/repository"
	"github.com/okian/acolyte/internal/config"
	"github.com/okian/acolyte/internal/domain/dedupe"
	"github.com/okian/acolyte/internal/domain/faults"
	"github.com/okian/acolyte/internal/domain/ingest"
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/internal/domain/seed"
	"github.com/okian/acolyte/pkg/logger"
)

const bucket = "acolyte-warriors"

type fixture struct {
	store *objectstore.MemoryStore
	table *repository.MemoryTable
	in    *ingest.Ingestor
}

func newFixture(ctx context.Context) *fixture {
	store := objectstore.NewMemoryStore(bucket)
	table := repository.NewMemoryTable(ctx)
	_, err := seed.New(store).SeedDefault(ctx)
	So(err, ShouldBeNil)
	_, err = store.PutObject(ctx, "bad.json", []byte("{not json"), model.ContentType)
	So(err, ShouldBeNil)
	_, err = store.PutObject(ctx, "noid.json", []byte(`[{"name":"NoId"},{"name":"AlsoNoId","fightsWon":3}]`), model.ContentType)
	So(err, ShouldBeNil)
	return &fixture{store: store, table: table, in: ingest.New(store, table)}
}

func message(id, key string) events.SQSMessage {
	body, err := model.NewNotification(model.UploadEvent{Bucket: bucket, Key: key})
	So(err, ShouldBeNil)
	return events.SQSMessage{MessageId: id, Body: body, EventSource: "aws:sqs"}
}

func TestHandler(t *testing.T) {
	_ = logger.Init()

	Convey("Given an ingestion handler over the seeded object", t, func() {
		ctx := context.Background()
		f := newFixture(ctx)
		defer func() { _ = f.table.Close() }()

		Convey("When the batch is empty", func() {
			h, err := consumer.New(f.in)
			So(err, ShouldBeNil)
			resp, err := h.Handle(ctx, events.SQSEvent{})

			Convey("Then it should answer 404 {} without reading", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(resp.Body, ShouldEqual, "{}")
				So(f.table.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the seed object's create event arrives", func() {
			h, _ := consumer.New(f.in)
			resp, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m1", "ACOLYTE_WARRIORS")}})

			Convey("Then ids 1-5 should be upserted with the roster's values", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				payload, _ := model.EncodePayload(seed.DefaultRoster())
				So(resp.Body, ShouldEqual, string(payload))

				items, _ := f.table.List(ctx)
				So(items, ShouldHaveLength, 5)
				for i, w := range seed.DefaultRoster() {
					So(items[i], ShouldResemble, w.Item())
				}
			})
		})

		Convey("When the same event is delivered twice under different message ids", func() {
			h, _ := consumer.New(f.in, consumer.WithDeduper(dedupe.NewInMemoryDeduper()))
			_, err1 := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m1", "ACOLYTE_WARRIORS")}})
			_, err2 := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m2", "ACOLYTE_WARRIORS")}})

			Convey("Then the table should hold five items, not ten", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(f.table.Count(ctx), ShouldEqual, 5)
			})
		})

		Convey("When the same message is redelivered after the roster changed", func() {
			h, _ := consumer.New(f.in, consumer.WithDeduper(dedupe.NewInMemoryDeduper()))
			_, _ = h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m1", "ACOLYTE_WARRIORS")}})

			updated := seed.DefaultRoster()
			updated[0].FightsWon = 99
			_, err := seed.New(f.store).Seed(ctx, updated)
			So(err, ShouldBeNil)

			_, _ = h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m1", "ACOLYTE_WARRIORS")}})
			_, _ = h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m2", "ACOLYTE_WARRIORS")}})

			Convey("Then the duplicate should be skipped and the new event win", func() {
				item, err := f.table.Get(ctx, 1)
				So(err, ShouldBeNil)
				So(item.FightsWon, ShouldEqual, 99)
				So(f.table.Count(ctx), ShouldEqual, 5)
			})
		})

		Convey("When a message body is not valid JSON", func() {
			bad := events.SQSMessage{MessageId: "m-bad", Body: "<<<"}

			Convey("And the mode is signal", func() {
				h, _ := consumer.New(f.in, consumer.WithFailureMode(config.FailureSignal))
				_, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{bad}})

				Convey("Then a parse fault should be returned as the invocation error", func() {
					So(errors.Is(err, faults.ErrParse), ShouldBeTrue)
				})
			})

			Convey("And the mode is report", func() {
				h, _ := consumer.New(f.in, consumer.WithFailureMode(config.FailureReport))
				resp, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
					message("m1", "ACOLYTE_WARRIORS"), bad, message("m3", "bad.json"),
				}})

				Convey("Then only the faulted messages should be reported", func() {
					So(err, ShouldBeNil)
					So(resp.FailedIDs(), ShouldResemble, []string{"m-bad", "m3"})
					So(f.table.Count(ctx), ShouldEqual, 5)
				})
			})

			Convey("And the mode is swallow", func() {
				h, _ := consumer.New(f.in, consumer.WithFailureMode(config.FailureSwallow))
				resp, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{bad}})

				Convey("Then the fault should come back as a 500 value", func() {
					So(err, ShouldBeNil)
					So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
					So(resp.Body, ShouldContainSubstring, `"code":"parse"`)
					So(resp.BatchItemFailures, ShouldBeEmpty)
				})
			})

			Convey("And the mode is swallow with good messages after it", func() {
				h, _ := consumer.New(f.in, consumer.WithFailureMode(config.FailureSwallow))
				resp, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
					bad, message("m2", "ACOLYTE_WARRIORS"), message("m3", "bad.json"),
				}})

				Convey("Then the later messages should still be ingested", func() {
					So(err, ShouldBeNil)
					So(f.table.Count(ctx), ShouldEqual, 5)
				})

				Convey("And the first fault should be the returned value", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
					So(resp.Body, ShouldContainSubstring, `"code":"parse"`)
					So(resp.Body, ShouldContainSubstring, "invalid character")
					So(resp.BatchItemFailures, ShouldBeEmpty)
				})
			})
		})

		Convey("When an object holds records without their numeric fields", func() {
			h, _ := consumer.New(f.in, consumer.WithFailureMode(config.FailureSignal))
			_, err := h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m1", "noid.json")}})

			Convey("Then a parse fault should be signaled and nothing written", func() {
				So(errors.Is(err, faults.ErrParse), ShouldBeTrue)
				So(errors.Is(err, model.ErrMissingField), ShouldBeTrue)
				So(f.table.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a failed message is delivered again", func() {
			d := dedupe.NewInMemoryDeduper()
			h, _ := consumer.New(f.in, consumer.WithDeduper(d), consumer.WithFailureMode(config.FailureReport))
			_, _ = h.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message("m9", "missing.json")}})

			Convey("Then it should not be treated as a duplicate", func() {
				So(d.SeenAndRecord(ctx, "m9"), ShouldBeFalse)
			})
		})

		Convey("When the failure mode is unknown", func() {
			_, err := consumer.New(f.in, consumer.WithFailureMode("explode"))
			So(errors.Is(err, consumer.ErrUnknownMode), ShouldBeTrue)
		})
	})
}

type failingProcessor struct{ err error }

func (p failingProcessor) ProcessMessage(context.Context, string) ingest.Result {
	return ingest.Failed(faults.WrapKind("ingest.upsert", faults.ErrWrite, p.err))
}

func TestHandlerAWSErrors(t *testing.T) {
	_ = logger.Init()

	Convey("Given a processor failing with a DynamoDB API error", t, func() {
		apiErr := &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down", Fault: smithy.FaultServer}
		h, _ := consumer.New(failingProcessor{err: apiErr})

		_, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m1", Body: "{}"}}})

		Convey("Then the error should keep both the kind and the API error", func() {
			So(errors.Is(err, faults.ErrWrite), ShouldBeTrue)
			var got smithy.APIError
			So(errors.As(err, &got), ShouldBeTrue)
			So(got.ErrorCode(), ShouldEqual, "ProvisionedThroughputExceededException")
		})
	})
}
