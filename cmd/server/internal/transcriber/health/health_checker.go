// Package health periodically probes a transcriber and tracks consecutive
// failures so the degradation controller knows when to switch backends.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/houzhh15/studybuddy/cmd/server/internal/transcriber"
	"github.com/houzhh15/studybuddy/pkg/metrics"
)

// ServiceStatus is the current health of a transcriber. Safe to expose as JSON.
type ServiceStatus struct {
	// IsHealthy is false once ConsecutiveFails reaches the fail threshold.
	IsHealthy bool `json:"is_healthy"`

	LastCheckTime time.Time `json:"last_check_time"`

	// ConsecutiveFails resets to 0 on the first successful probe.
	ConsecutiveFails int `json:"consecutive_fails"`

	// ErrorMessage holds the last probe error; empty while healthy.
	ErrorMessage string `json:"error_message"`
}

// HealthChecker runs HealthCheck on a transcriber at a fixed interval.
//
// Thread-safety: all public methods are safe for concurrent use.
type HealthChecker struct {
	transcriber   transcriber.Transcriber
	status        *ServiceStatus
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
	stopOnce      sync.Once
	logger        *slog.Logger
}

// NewHealthChecker creates a checker for t.
//
// The checker starts optimistic (healthy) so the primary backend is used
// until probes prove otherwise. Call Start to begin probing.
func NewHealthChecker(t transcriber.Transcriber, checkInterval time.Duration, failThreshold int) *HealthChecker {
	if failThreshold < 1 {
		failThreshold = 1
	}
	return &HealthChecker{
		transcriber:   t,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		logger:        slog.Default(),
		status: &ServiceStatus{
			IsHealthy:     true,
			LastCheckTime: time.Now(),
		},
	}
}

// WithLogger replaces the default logger. Returns hc for chaining.
func (hc *HealthChecker) WithLogger(logger *slog.Logger) *HealthChecker {
	if logger != nil {
		hc.logger = logger
	}
	return hc
}

// Start probes every checkInterval until Stop is called or ctx is
// cancelled. It blocks; run it in its own goroutine. Callers that need an
// initial status before serving should call CheckNow first.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hc.performCheck(ctx)
		case <-hc.stopChan:
			hc.logger.Info("health checker stopped", "transcriber", hc.transcriber.Name())
			return
		case <-ctx.Done():
			hc.logger.Info("health checker context cancelled", "transcriber", hc.transcriber.Name())
			return
		}
	}
}

// CheckNow runs a single probe synchronously.
func (hc *HealthChecker) CheckNow(ctx context.Context) ServiceStatus {
	hc.performCheck(ctx)
	return hc.GetStatus()
}

func (hc *HealthChecker) performCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := hc.transcriber.HealthCheck(checkCtx)
	name := hc.transcriber.Name()

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.LastCheckTime = time.Now()

	if isHealthy {
		if hc.status.ConsecutiveFails > 0 || !hc.status.IsHealthy {
			hc.logger.Info("transcriber health restored", "transcriber", name)
		}
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
		metrics.SetTranscriberHealthy(name, true)
		return
	}

	hc.status.ConsecutiveFails++
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	hc.status.ErrorMessage = fmt.Sprintf("Health check failed: %s", errMsg)

	if hc.status.ConsecutiveFails >= hc.failThreshold {
		hc.status.IsHealthy = false
		metrics.SetTranscriberHealthy(name, false)
		hc.logger.Error("transcriber marked unhealthy",
			"transcriber", name, "consecutive_fails", hc.status.ConsecutiveFails, "error", errMsg)
	} else {
		hc.logger.Warn("transcriber health check failed",
			"transcriber", name, "consecutive_fails", hc.status.ConsecutiveFails,
			"threshold", hc.failThreshold, "error", errMsg)
	}
}

// GetStatus returns a copy of the current status.
func (hc *HealthChecker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return *hc.status
}

// Stop ends the Start loop. Safe to call more than once.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() { close(hc.stopChan) })
}
