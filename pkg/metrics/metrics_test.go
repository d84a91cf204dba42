package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording race metrics", func() {
			Convey("Then it should record without panicking", func() {
				So(func() {
					RecordRaceSimulated()
					RecordTrialsRun(1000)
					RecordDuplicateApply()
					RecordSimulationLatency(12.5)
					RecordStandingsUpdate()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue and worker metrics", func() {
			Convey("Then it should record without panicking", func() {
				So(func() {
					UpdateQueueSize(5)
					UpdateQueueCapacity(100)
					UpdateQueueUtilization(0.05)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueProcessingLatency(1.0)
					UpdateWorkerCount(4)
					UpdateWorkerActiveCount(4)
					UpdateWorkerRacesPerSecond(2.5)
					RecordWorkerProcessingLatency(30.0)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording persistence metrics", func() {
			Convey("Then it should record without panicking", func() {
				So(func() {
					RecordPersistenceRetry()
					RecordPersistenceError()
					RecordPersistenceLatency(4.2)
					UpdateResultsHeld(1)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording error metrics", func() {
			Convey("Then it should record without panicking", func() {
				So(func() {
					RecordErrorByComponent("worker", "sampling_error")
					RecordErrorByType("sampling_error", "high")
					RecordErrorByEndpoint("races", "POST", "client_error")
					RecordErrorLatency("http", "client_error", 3.0)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("Then it should not be nil", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
