package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// s3TestEvent is what S3 sends once when a notification target is configured.
const s3TestEvent = "s3:TestEvent"

// ErrNoObject is returned for an event record that names no bucket or key.
var ErrNoObject = errors.New("event names no bucket or key")

// UploadEvent identifies one object written to the object store.
type UploadEvent struct {
	Bucket    string
	Key       string
	Size      int64
	ETag      string
	Sequencer string
	EventName string
}

// notificationEnvelope covers both S3 notification bodies: the regular
// event list and the one-off test event.
type notificationEnvelope struct {
	events.S3Event
	Event string `json:"Event"`
}

// ParseNotification extracts the upload events embedded in one queue message
// body. A test event or an envelope without records yields no events and no
// error. Object keys are URL-decoded the way S3 encodes them.
func ParseNotification(body string) ([]UploadEvent, error) {
	var env notificationEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if env.Event == s3TestEvent || len(env.Records) == 0 {
		return nil, nil
	}

	out := make([]UploadEvent, 0, len(env.Records))
	for i, rec := range env.Records {
		if rec.EventName != "" && !strings.HasPrefix(rec.EventName, "ObjectCreated:") {
			continue
		}
		key := rec.S3.Object.URLDecodedKey
		if key == "" {
			decoded, err := url.QueryUnescape(rec.S3.Object.Key)
			if err != nil {
				return nil, fmt.Errorf("record %d: decode key %q: %w", i, rec.S3.Object.Key, err)
			}
			key = decoded
		}
		if rec.S3.Bucket.Name == "" || key == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrNoObject)
		}
		out = append(out, UploadEvent{
			Bucket:    rec.S3.Bucket.Name,
			Key:       key,
			Size:      rec.S3.Object.Size,
			ETag:      rec.S3.Object.ETag,
			Sequencer: rec.S3.Object.Sequencer,
			EventName: rec.EventName,
		})
	}
	return out, nil
}

// NewNotification builds the queue message body S3 publishes for a created
// object. The local object store uses it so the consumer sees the same bytes
// it would see from SQS.
func NewNotification(ev UploadEvent) (string, error) {
	name := ev.EventName
	if name == "" {
		name = "ObjectCreated:Put"
	}
	rec := events.S3EventRecord{
		EventVersion: "2.1",
		EventSource:  "aws:s3",
		EventTime:    time.Now().UTC(),
		EventName:    name,
		S3: events.S3Entity{
			SchemaVersion: "1.0",
			Bucket: events.S3Bucket{
				Name: ev.Bucket,
				Arn:  "arn:aws:s3:::" + ev.Bucket,
			},
			Object: events.S3Object{
				Key:       url.QueryEscape(ev.Key),
				Size:      ev.Size,
				ETag:      ev.ETag,
				Sequencer: ev.Sequencer,
			},
		},
	}
	b, err := json.Marshal(events.S3Event{Records: []events.S3EventRecord{rec}})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
