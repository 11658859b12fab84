package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TranscriptsTotal counts pipeline runs.
	// Labels: status (processed/failed)
	TranscriptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskscribe_transcripts_total",
			Help: "Total number of transcripts run through the pipeline by outcome",
		},
		[]string{"status"},
	)

	// EventsTotal counts scheduling attempts.
	// Labels: status (created/skipped/failed)
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskscribe_calendar_events_total",
			Help: "Total number of calendar scheduling attempts by outcome",
		},
		[]string{"status"},
	)

	// ResolutionsTotal counts assignee lookups.
	// Labels: status (resolved/ambiguous/not_found/invalid)
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskscribe_assignee_resolutions_total",
			Help: "Total number of assignee resolutions by outcome",
		},
		[]string{"status"},
	)

	// NotificationsTotal counts per-channel delivery outcomes.
	// Labels: channel (email/chat), outcome (sent/failed/not_attempted)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskscribe_notifications_total",
			Help: "Total number of task notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// PipelineDuration observes end-to-end run time in seconds.
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskscribe_pipeline_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
)

func RecordTranscript(status string) {
	TranscriptsTotal.WithLabelValues(status).Inc()
}

func RecordEvent(status string) {
	EventsTotal.WithLabelValues(status).Inc()
}

func RecordResolution(status string) {
	ResolutionsTotal.WithLabelValues(status).Inc()
}

func RecordNotification(channel, outcome string) {
	NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func RecordDuration(seconds float64) {
	PipelineDuration.Observe(seconds)
}
