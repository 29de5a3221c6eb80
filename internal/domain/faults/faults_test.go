package faults_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/acolyte/internal/domain/faults"
	. "github.com/smartystreets/goconvey/convey"
)

type throttled struct{ code string }

func (t *throttled) Error() string { return "throttled: " + t.code }

func TestWrapKind(t *testing.T) {
	Convey("Given a cause wrapped with a kind", t, func() {
		cause := &throttled{code: "ProvisionedThroughputExceeded"}
		err := faults.WrapKind("ingest.upsert", faults.ErrWrite, cause)

		Convey("Then errors.Is should match the kind", func() {
			So(errors.Is(err, faults.ErrWrite), ShouldBeTrue)
			So(errors.Is(err, faults.ErrParse), ShouldBeFalse)
		})

		Convey("And errors.As should still reach the cause", func() {
			var target *throttled
			So(errors.As(err, &target), ShouldBeTrue)
			So(target.code, ShouldEqual, "ProvisionedThroughputExceeded")
		})

		Convey("And the message should name op, kind and cause", func() {
			So(err.Error(), ShouldEqual, "ingest.upsert: write fault: throttled: ProvisionedThroughputExceeded")
		})

		Convey("And the label should be the metric label", func() {
			So(faults.Label(err), ShouldEqual, "write")
		})

		Convey("And rewrapping with fmt should keep the kind", func() {
			outer := fmt.Errorf("message m-1: %w", err)
			So(faults.KindOf(outer), ShouldEqual, faults.ErrWrite)
		})
	})

	Convey("Given a nil cause", t, func() {
		So(faults.WrapKind("op", faults.ErrParse, nil), ShouldBeNil)
	})
}

func TestKindOfAndNewKind(t *testing.T) {
	Convey("Given a kind-less error", t, func() {
		err := fmt.Errorf("seed.put: %w", context.DeadlineExceeded)

		Convey("Then it should be unclassified", func() {
			So(faults.KindOf(err), ShouldBeNil)
			So(faults.Label(err), ShouldEqual, "unknown")
		})
	})

	Convey("Given a deadline reported as the kind of the operation", t, func() {
		err := faults.WrapKind("ingest.read", faults.ErrStorageRead, context.DeadlineExceeded)

		Convey("Then both the kind and the deadline should match", func() {
			So(errors.Is(err, faults.ErrStorageRead), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "ingest.read: storage read fault: ")
		})
	})

	Convey("Given NewKind", t, func() {
		err := faults.NewKind("ingest.batch", faults.ErrEmptyBatch)
		So(err.Error(), ShouldEqual, "ingest.batch: empty batch")
		So(faults.Label(err), ShouldEqual, "empty_batch")
	})
}
