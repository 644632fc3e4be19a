package transcriber

import (
	"context"
	"log/slog"
)

// Mock is the degraded-mode transcriber. It never blocks and never errors;
// it returns an empty transcript so the evaluator answers with its
// "too short" fallback instead of failing the request.
type Mock struct {
	logger *slog.Logger
}

// NewMock creates the degraded-mode transcriber.
func NewMock(logger *slog.Logger) *Mock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mock{logger: logger}
}

// Transcribe returns an empty result.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, format string, opts *Options) (*Result, error) {
	m.logger.Warn("transcription requested in degraded mode, returning empty transcript",
		"transcriber", m.Name(), "bytes", len(audio), "format", format)
	return &Result{
		Segments: []Segment{},
		Language: "unknown",
	}, nil
}

// HealthCheck always reports unhealthy so status endpoints show degraded mode.
func (m *Mock) HealthCheck(ctx context.Context) (bool, error) {
	return false, nil
}

// Name returns "mock-degraded".
func (m *Mock) Name() string {
	return "mock-degraded"
}
