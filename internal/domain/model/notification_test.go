package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/acolyte/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

const putNotification = `{"Records":[{"eventVersion":"2.1","eventSource":"aws:s3","awsRegion":"ap-south-1",
"eventTime":"2024-01-01T00:00:00.000Z","eventName":"ObjectCreated:Put",
"s3":{"s3SchemaVersion":"1.0","bucket":{"name":"acolyte-warriors","arn":"arn:aws:s3:::acolyte-warriors"},
"object":{"key":"uploads/team+a%2Bb.json","size":120,"eTag":"abc","sequencer":"0055AED6DCD90281E5"}}}]}`

func TestParseNotification(t *testing.T) {
	convey.Convey("Given queue message bodies", t, func() {
		convey.Convey("When the body carries an object created event", func() {
			evs, err := model.ParseNotification(putNotification)

			convey.Convey("Then the bucket and decoded key should be extracted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(evs, convey.ShouldHaveLength, 1)
				convey.So(evs[0].Bucket, convey.ShouldEqual, "acolyte-warriors")
				convey.So(evs[0].Key, convey.ShouldEqual, "uploads/team a+b.json")
				convey.So(evs[0].Size, convey.ShouldEqual, 120)
				convey.So(evs[0].EventName, convey.ShouldEqual, "ObjectCreated:Put")
			})
		})

		convey.Convey("When the body is the S3 test event", func() {
			evs, err := model.ParseNotification(`{"Service":"Amazon S3","Event":"s3:TestEvent","Bucket":"acolyte-warriors"}`)

			convey.Convey("Then there should be nothing to do", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(evs, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the event is not a create event", func() {
			evs, err := model.ParseNotification(`{"Records":[{"eventName":"ObjectRemoved:Delete","s3":{"bucket":{"name":"b"},"object":{"key":"k"}}}]}`)
			convey.So(err, convey.ShouldBeNil)
			convey.So(evs, convey.ShouldBeEmpty)
		})

		convey.Convey("When the record names no bucket", func() {
			_, err := model.ParseNotification(`{"Records":[{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":""},"object":{"key":"k"}}}]}`)
			convey.So(errors.Is(err, model.ErrNoObject), convey.ShouldBeTrue)
		})

		convey.Convey("When the body is not JSON", func() {
			_, err := model.ParseNotification("not json")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestNewNotification(t *testing.T) {
	convey.Convey("Given an upload event", t, func() {
		ev := model.UploadEvent{Bucket: "acolyte-warriors", Key: "uploads/a b.json", Size: 10, ETag: "e"}

		convey.Convey("When it is encoded as a notification and parsed back", func() {
			body, err := model.NewNotification(ev)
			convey.So(err, convey.ShouldBeNil)
			evs, err := model.ParseNotification(body)

			convey.Convey("Then the event should survive unchanged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(evs, convey.ShouldHaveLength, 1)
				convey.So(evs[0].Bucket, convey.ShouldEqual, ev.Bucket)
				convey.So(evs[0].Key, convey.ShouldEqual, ev.Key)
				convey.So(evs[0].Size, convey.ShouldEqual, ev.Size)
				convey.So(evs[0].ETag, convey.ShouldEqual, ev.ETag)
				convey.So(evs[0].EventName, convey.ShouldEqual, "ObjectCreated:Put")
			})
		})
	})
}
