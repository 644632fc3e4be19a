// Package transcriber turns recorded speech into text for the communication
// evaluator. It defines the Transcriber interface shared by the go-whisper HTTP
// client and the degraded mock, plus helpers for cleaning transcripts before
// they reach the analyzer.
package transcriber

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Segment is a single timed piece of transcribed speech.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the complete output of one transcription.
type Result struct {
	// Segments is empty, never nil, when nothing was recognised.
	Segments []Segment `json:"segments"`

	// Text is the full transcript.
	Text string `json:"text"`

	// Language is the detected or forced language code ("en").
	Language string `json:"language"`

	// Duration is the audio length in seconds.
	Duration float64 `json:"duration"`
}

// Options tunes a single Transcribe call. A nil *Options means defaults.
type Options struct {
	// Model is the whisper model name. Default: "ggml-base".
	Model string

	// Language forces a language (ISO 639-1). Empty means auto-detect.
	Language string

	// Prompt gives the recogniser context such as course vocabulary.
	Prompt string

	// Temperature is the sampling temperature. Default 0 keeps output stable.
	Temperature float64

	// Timeout bounds the call when the caller's context has no deadline.
	Timeout time.Duration
}

// Transcriber is implemented by every speech-to-text backend.
//
// Implementations must respect ctx cancellation, wrap backend failures with
// context, and return an empty Result (not an error) when the audio simply
// contains no speech.
type Transcriber interface {
	// Transcribe converts an in-memory recording. format is the container
	// extension ("wav", "webm", "mp3") and is used to name the upload.
	Transcribe(ctx context.Context, audio []byte, format string, opts *Options) (*Result, error)

	// HealthCheck reports whether the backend can currently transcribe.
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the implementation in logs and metrics.
	Name() string
}

// failureSentinels are phrases some speech front-ends emit in place of a
// transcript when recognition failed. Treat them as "no transcript".
var failureSentinels = []string{
	"i couldn't understand what you said",
	"please try again with these tips",
	"audio recording appears to be empty",
	"audio processing failed",
	"could not understand audio",
	"speech recognition service unavailable",
}

// IsFailureSentinel reports whether text is a recogniser error message rather
// than something the student said.
func IsFailureSentinel(text string) bool {
	lower := strings.ToLower(text)
	for _, s := range failureSentinels {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Normalize composes the transcript to NFC and collapses runs of whitespace,
// so segment joins and decomposed accents do not skew word counts.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
