package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is sent when Options.Model is empty.
const DefaultModel = "ggml-base"

// WhisperClient talks to a go-whisper HTTP service
// (ghcr.io/mutablelogic/go-whisper) using multipart uploads.
type WhisperClient struct {
	apiURL     string
	model      string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWhisperClient creates a client for apiURL (e.g. "http://localhost:8082").
//
// model and language become per-call defaults; timeout bounds each HTTP call
// (0 selects two minutes, enough for a short practice recording).
func NewWhisperClient(apiURL, model, language string, timeout time.Duration, logger *slog.Logger) *WhisperClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhisperClient{
		apiURL:     strings.TrimRight(apiURL, "/"),
		model:      model,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Transcribe uploads audio as the "audio" form field and decodes the JSON
// transcription.
//
// API endpoint: POST {apiURL}/api/whisper/transcribe
func (w *WhisperClient) Transcribe(ctx context.Context, audio []byte, format string, opts *Options) (*Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	if opts != nil && opts.Timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", uploadName(format))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to copy audio data: %w", err)
	}

	model := w.model
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}
	language := w.language
	if opts != nil && opts.Language != "" {
		language = opts.Language
	}
	temperature := 0.0
	if opts != nil && opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	fields := [][2]string{
		{"model", model},
		{"response_format", "json"},
		{"temperature", fmt.Sprintf("%.1f", temperature)},
	}
	if language != "" {
		fields = append(fields, [2]string{"language", language})
	}
	if opts != nil && opts.Prompt != "" {
		fields = append(fields, [2]string{"prompt", opts.Prompt})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := w.apiURL + "/api/whisper/transcribe"
	w.logger.Debug("sending transcription request", "endpoint", endpoint, "model", model, "bytes", len(audio), "format", format)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		w.logger.Warn("whisper returned error", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if result.Segments == nil {
		result.Segments = []Segment{}
	}
	return &result, nil
}

// HealthCheck probes GET {apiURL}/api/whisper/model.
func (w *WhisperClient) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"/api/whisper/model", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	return false, fmt.Errorf("health check failed: status %d", resp.StatusCode)
}

// Name returns "go-whisper".
func (w *WhisperClient) Name() string {
	return "go-whisper"
}

func uploadName(format string) string {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if format == "" {
		format = "wav"
	}
	return "recording." + format
}
