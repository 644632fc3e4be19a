// Package degradation switches between the primary transcriber and the
// degraded mock based on the health checker's verdict, and switches back
// once the primary recovers.
package degradation

import (
	"log/slog"
	"sync"

	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber"
	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber/health"
	"github.com/houzhh15/studybuddy/pkg/metrics"
)

// DegradationController hands out the transcriber that should serve the
// next request.
//
// Thread-safety: all public methods are safe for concurrent use.
type DegradationController struct {
	primaryTranscriber  transcriber.Transcriber
	fallbackTranscriber transcriber.Transcriber
	healthChecker       *health.HealthChecker
	currentTranscriber  transcriber.Transcriber
	mu                  sync.RWMutex
	isDegraded          bool
	logger              *slog.Logger
}

// NewDegradationController creates a controller that starts on primary.
// hc must be monitoring primary. All arguments must be non-nil.
func NewDegradationController(primary, fallback transcriber.Transcriber, hc *health.HealthChecker) *DegradationController {
	return &DegradationController{
		primaryTranscriber:  primary,
		fallbackTranscriber: fallback,
		healthChecker:       hc,
		currentTranscriber:  primary,
		logger:              slog.Default(),
	}
}

// WithLogger replaces the default logger. Returns dc for chaining.
func (dc *DegradationController) WithLogger(logger *slog.Logger) *DegradationController {
	if logger != nil {
		dc.logger = logger
	}
	return dc
}

// GetTranscriber consults the latest health status and returns the active
// transcriber, degrading or recovering as needed. Each switch is logged and
// counted once.
func (dc *DegradationController) GetTranscriber() transcriber.Transcriber {
	status := dc.healthChecker.GetStatus()

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !status.IsHealthy && !dc.isDegraded {
		dc.logger.Warn("degrading to fallback transcriber",
			"fallback", dc.fallbackTranscriber.Name(),
			"primary", dc.primaryTranscriber.Name(),
			"reason", status.ErrorMessage)
		metrics.RecordDegradationEvent(dc.primaryTranscriber.Name(), dc.fallbackTranscriber.Name())
		dc.currentTranscriber = dc.fallbackTranscriber
		dc.isDegraded = true
	}

	if status.IsHealthy && dc.isDegraded {
		dc.logger.Info("recovering to primary transcriber", "primary", dc.primaryTranscriber.Name())
		metrics.RecordDegradationEvent(dc.fallbackTranscriber.Name(), dc.primaryTranscriber.Name())
		dc.currentTranscriber = dc.primaryTranscriber
		dc.isDegraded = false
	}

	return dc.currentTranscriber
}

// IsDegraded reports whether the fallback is active.
func (dc *DegradationController) IsDegraded() bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.isDegraded
}

// Status is a point-in-time view for the services status endpoint.
type Status struct {
	Active   string               `json:"active"`
	Primary  string               `json:"primary"`
	Fallback string               `json:"fallback"`
	Degraded bool                 `json:"degraded"`
	Health   health.ServiceStatus `json:"health"`
}

// Snapshot returns the active backend and the primary's health.
func (dc *DegradationController) Snapshot() Status {
	active := dc.GetTranscriber()
	return Status{
		Active:   active.Name(),
		Primary:  dc.primaryTranscriber.Name(),
		Fallback: dc.fallbackTranscriber.Name(),
		Degraded: dc.IsDegraded(),
		Health:   dc.healthChecker.GetStatus(),
	}
}
