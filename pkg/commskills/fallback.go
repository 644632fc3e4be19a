package commskills

import (
	"fmt"
	"unicode/utf8"
)

// Fallback reasons.
const (
	ReasonTooShort           = "No speech detected or transcription too short"
	ReasonTranscriptionError = "Audio could not be transcribed"
)

const fallbackSuggestions = "Try speaking more clearly and with better pronunciation. Practice regularly to improve your communication skills."

// Fallback produces a plausible randomized result for input that cannot be scored.
// It never panics for a non-nil rng.
func Fallback(reason, transcript string, rng RandSource) EvaluationResult {
	draw := func() int {
		return clamp(uniform(rng, 65, 85)+uniform(rng, -10, 10), 40, 100)
	}
	clarity, confidence, articulation := draw(), draw(), draw()

	return EvaluationResult{
		Transcription: transcript,
		Clarity:       clarity,
		Confidence:    confidence,
		Articulation:  articulation,
		Feedback: fmt.Sprintf("%s. Your speech shows %d%% clarity, %d%% confidence, and %d%% articulation.",
			reason, clarity, confidence, articulation),
		Suggestions: fallbackSuggestions,
		Analysis: Analysis{
			SpeechQuality:       0.5,
			TranscriptionLength: utf8.RuneCountInString(transcript),
			Fallback:            true,
		},
	}
}

// Degraded result returned when evaluation panics.
const (
	degradedTranscription = "Unable to transcribe audio. Please try again."
	degradedFeedback      = "There was an error processing your audio. Please check your microphone and try again."
	degradedSuggestions   = "Ensure your microphone is working properly and you're speaking clearly."
)

func degraded(cause any) EvaluationResult {
	return EvaluationResult{
		Transcription: degradedTranscription,
		Clarity:       50,
		Confidence:    50,
		Articulation:  50,
		Feedback:      degradedFeedback,
		Suggestions:   degradedSuggestions,
		Analysis:      Analysis{Error: fmt.Sprint(cause)},
	}
}
