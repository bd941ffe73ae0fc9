package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the churn namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "churn")
				So(manager.subsystem, ShouldEqual, "inference")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.predictions.WithLabelValues("likely").Inc()

			Convey("Then the registry exposes the renamed collectors with const labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_sub_predictions_total" {
						found = true
						So(f.GetMetric()[0].GetLabel(), ShouldNotBeEmpty)
					}
				}
				So(found, ShouldBeTrue)
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
			})
		})

		Convey("When registering two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestPredictionMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a likely prediction", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("likely"))
			err := RecordPrediction("likely", 0.81)

			Convey("Then the verdict counter increments", func() {
				So(err, ShouldBeNil)
				So(testutil.ToFloat64(globalManager.predictions.WithLabelValues("likely")), ShouldEqual, before+1)
			})
		})

		Convey("When recording a probability outside [0,1]", func() {
			err := RecordPrediction("likely", 1.5)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrOutOfRange), ShouldBeTrue)
			})
		})

		Convey("When recording invalid-model and rejected inputs", func() {
			invalidBefore := testutil.ToFloat64(globalManager.invalidModel)
			rejectedBefore := testutil.ToFloat64(globalManager.rejectedInputs.WithLabelValues("tenure"))
			RecordInvalidModel()
			RecordRejectedInput("tenure")

			Convey("Then both counters move", func() {
				So(testutil.ToFloat64(globalManager.invalidModel), ShouldEqual, invalidBefore+1)
				So(testutil.ToFloat64(globalManager.rejectedInputs.WithLabelValues("tenure")), ShouldEqual, rejectedBefore+1)
			})
		})

		Convey("When publishing model info twice", func() {
			SetModelInfo("forest-a", "1", "table", 3)
			SetModelInfo("forest-b", "2", "legacy", 5)

			Convey("Then only the latest artifact is reported", func() {
				So(testutil.CollectAndCount(globalManager.modelInfo), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.modelInfo.WithLabelValues("forest-b", "2", "legacy")), ShouldEqual, 5)
			})
		})
	})
}

func TestRecordingDoesNotPanic(t *testing.T) {
	Convey("Given the remaining recorders", t, func() {
		So(func() {
			RecordPredictionLatency(1.2)
			RecordEncodingError()
			SetModelLoadDuration(15)
			RecordRateLimited()
			RecordHTTPRequest("predict", "POST", "200")
			RecordHTTPRequestDuration("predict", "POST", "200", 3)
			RecordErrorByType("client_error", "medium")
			RecordErrorByEndpoint("predict", "POST", "client_error")
			RecordErrorLatency("http", "client_error", 2)
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.3)
		}, ShouldNotPanic)
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordHTTPRequest("healthz", "GET", "200")
		families, err := GetRegistry().Gather()

		Convey("Then it gathers churn metrics only", func() {
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "churn_inference_"), ShouldBeTrue)
			}
		})
	})
}
