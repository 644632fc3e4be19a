// Package metrics provides Prometheus metrics for the speech transcription collaborators.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transcriber metrics
var (
	// transcriptionRequestsTotal records transcription attempts.
	// Labels:
	//   - transcriber: Implementation name (e.g., "go-whisper", "mock-degraded")
	//   - status: Outcome (e.g., "success", "failed", "empty", "sentinel")
	transcriptionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_transcription_requests_total",
			Help: "Total number of audio transcription requests by transcriber and outcome",
		},
		[]string{"transcriber", "status"},
	)

	// transcriptionDuration records how long a transcription call took.
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s
	transcriptionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studybuddy_transcription_duration_seconds",
			Help:    "Duration of audio transcription calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"transcriber"},
	)

	// degradationEventsTotal records switches between transcribers.
	// Labels:
	//   - from: Transcriber that was active before the switch
	//   - to: Transcriber that is active after the switch
	degradationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_transcriber_switch_events_total",
			Help: "Total number of transcriber degradation and recovery events",
		},
		[]string{"from", "to"},
	)

	// transcriberHealthy is 1 while the primary transcriber passes health checks.
	transcriberHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "studybuddy_transcriber_healthy",
			Help: "Transcriber health status (0=unhealthy, 1=healthy)",
		},
		[]string{"transcriber"},
	)
)

func init() {
	prometheus.MustRegister(transcriptionRequestsTotal)
	prometheus.MustRegister(transcriptionDuration)
	prometheus.MustRegister(degradationEventsTotal)
	prometheus.MustRegister(transcriberHealthy)
}

// RecordTranscription records a transcription attempt and its duration.
func RecordTranscription(transcriber, status string, durationSeconds float64) {
	transcriptionRequestsTotal.WithLabelValues(transcriber, status).Inc()
	transcriptionDuration.WithLabelValues(transcriber).Observe(durationSeconds)
}

// RecordDegradationEvent records a switch from one transcriber to another.
func RecordDegradationEvent(from, to string) {
	degradationEventsTotal.WithLabelValues(from, to).Inc()
}

// SetTranscriberHealthy sets the health gauge of a transcriber.
func SetTranscriberHealthy(transcriber string, healthy bool) {
	if healthy {
		transcriberHealthy.WithLabelValues(transcriber).Set(1)
	} else {
		transcriberHealthy.WithLabelValues(transcriber).Set(0)
	}
}
