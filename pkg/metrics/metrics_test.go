package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register the pipeline metrics", func() {
				So(manager, ShouldNotBeNil)
				manager.recordsUpserted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "acolyte_pipeline_records_upserted_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("ingest"),
				WithMetricPrefix("fn"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"function": "ingest"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and constant labels should follow the options", func() {
				manager.seedsWritten.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_ingest_fn_seeds_written_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "ingest")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording pipeline events", func() {
			beforeUpserts := testutil.ToFloat64(globalManager.recordsUpserted)
			beforeParse := testutil.ToFloat64(globalManager.faults.WithLabelValues("parse"))
			beforeSeedRecords := testutil.ToFloat64(globalManager.seedRecords)

			RecordUpsert(3)
			RecordUpsert(4)
			RecordFault("parse")
			RecordSeedWritten(5)
			UpdateTableItems(5)
			UpdateQueueSize(2)

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.recordsUpserted), ShouldEqual, beforeUpserts+2)
				So(testutil.ToFloat64(globalManager.faults.WithLabelValues("parse")), ShouldEqual, beforeParse+1)
				So(testutil.ToFloat64(globalManager.seedRecords), ShouldEqual, beforeSeedRecords+5)
				So(testutil.ToFloat64(globalManager.tableItems), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 2)
			})
		})

		Convey("Then the exported registry should be the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
