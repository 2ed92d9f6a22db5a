package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	camerasProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_processor_cameras_processed_total",
		Help: "Total number of camera cycles completed successfully.",
	})
	camerasFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_processor_cameras_failed_total",
		Help: "Total number of camera cycles abandoned due to an error.",
	})
	statesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_processor_states_stored_total",
		Help: "Total number of CI state records written to the store.",
	})
	forecastsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_processor_forecasts_stored_total",
		Help: "Total number of forecast vectors written to the store.",
	})
	updatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_processor_updates_published_total",
		Help: "Total number of live updates published to MQTT.",
	})
	cyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triptally_processor_cycles_skipped_total",
		Help: "Total number of cycles skipped because the previous one was still running.",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "triptally_processor_cycle_duration_seconds",
		Help:    "Duration of a full processing cycle across all cameras.",
		Buckets: []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
	})
)
