package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesPostedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_relay",
		Subsystem: "delivery",
		Name:      "messages_posted_total",
		Help:      "Number of new chat messages posted.",
	})
	messagesEditedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_relay",
		Subsystem: "delivery",
		Name:      "messages_edited_total",
		Help:      "Number of chat messages edited in place.",
	})
	eventsSkippedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_relay",
		Subsystem: "delivery",
		Name:      "events_skipped_total",
		Help:      "Number of events dropped by a no-op branch, by object and aspect type.",
	}, []string{"object_type", "aspect_type"})
	lastDeliveryGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_relay",
		Subsystem: "delivery",
		Name:      "last_delivery_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful post or edit.",
	})
)

func init() {
	prometheus.MustRegister(messagesPostedCounter, messagesEditedCounter, eventsSkippedCounter, lastDeliveryGauge)
}

// RecordMessagePosted counts a new post and moves the delivery watermark.
func RecordMessagePosted() {
	messagesPostedCounter.Inc()
	lastDeliveryGauge.Set(float64(time.Now().Unix()))
}

// RecordMessageEdited counts an in-place edit and moves the delivery watermark.
func RecordMessageEdited() {
	messagesEditedCounter.Inc()
	lastDeliveryGauge.Set(float64(time.Now().Unix()))
}

// RecordEventSkipped counts an event dropped by a documented no-op branch.
func RecordEventSkipped(objectType, aspectType string) {
	eventsSkippedCounter.WithLabelValues(objectType, aspectType).Inc()
}
