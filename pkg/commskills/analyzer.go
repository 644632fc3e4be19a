// Package commskills scores a spoken or typed transcript for clarity,
// confidence and articulation using lexical heuristics, and composes
// feedback and practice suggestions from the scores.
//
// The pipeline is single pass: normalize, extract features, score, add
// jitter, compose. Evaluate never fails; unusable input yields a randomized
// fallback result and internal faults yield a fixed degraded result.
package commskills

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"
)

// Mode selects the score calculator set.
type Mode string

const (
	ModeEnhanced Mode = "enhanced"
	ModeSimple   Mode = "simple"
)

// MatchMode controls how lexical markers are counted.
type MatchMode string

const (
	// MatchSubstring counts raw occurrences in the lowercased transcript.
	MatchSubstring MatchMode = "substring"
	// MatchToken counts whole lowercased words with surrounding punctuation removed.
	MatchToken MatchMode = "token"
)

// DefaultMinLength is the shortest trimmed transcript that is scored.
const DefaultMinLength = 10

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeEnhanced:
		return ModeEnhanced, nil
	case ModeSimple:
		return ModeSimple, nil
	default:
		return "", fmt.Errorf("invalid analyzer mode: %s", s)
	}
}

// ParseMatchMode maps a configuration string to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchToken:
		return MatchToken, nil
	default:
		return "", fmt.Errorf("invalid match mode: %s", s)
	}
}

// Options configures an Analyzer. Zero values select the enhanced calculators,
// substring matching, jitter on and the process-wide random source.
type Options struct {
	Mode          Mode
	Match         MatchMode
	MinLength     int
	DisableJitter bool
	Rand          RandSource
	Logger        *slog.Logger
}

// Analysis re-exposes the feature set of an evaluation.
type Analysis struct {
	WordCount           int     `json:"word_count"`
	SentenceCount       int     `json:"sentence_count"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	VocabularyDiversity float64 `json:"vocabulary_diversity"`
	SpeechQuality       float64 `json:"speech_quality"`
	FillerWords         int     `json:"filler_words"`
	ComplexityScore     float64 `json:"complexity_score"`
	FlowScore           float64 `json:"flow_score"`
	FormalLanguage      int     `json:"formal_language"`
	HasQuestions        bool    `json:"has_questions"`
	HasExclamations     bool    `json:"has_exclamations"`
	TranscriptionLength int     `json:"transcription_length"`
	Mode                Mode    `json:"mode,omitempty"`
	Fallback            bool    `json:"fallback,omitempty"`
	Error               string  `json:"error,omitempty"`
}

// EvaluationResult is the complete output of one evaluation.
type EvaluationResult struct {
	Transcription string   `json:"transcription"`
	Clarity       int      `json:"clarity"`
	Confidence    int      `json:"confidence"`
	Articulation  int      `json:"articulation"`
	Feedback      string   `json:"feedback"`
	Suggestions   string   `json:"suggestions"`
	Analysis      Analysis `json:"analysis"`
}

// Scores returns the score triple of the result.
func (r EvaluationResult) Scores() ScoreTriple {
	return ScoreTriple{Clarity: r.Clarity, Confidence: r.Confidence, Articulation: r.Articulation}
}

// Analyzer evaluates transcripts. It holds no mutable state and is safe for
// concurrent use when its RandSource is.
type Analyzer struct {
	mode      Mode
	match     MatchMode
	minLength int
	jitter    bool
	rng       RandSource
	logger    *slog.Logger
}

// New creates an Analyzer from opts.
func New(opts Options) *Analyzer {
	a := &Analyzer{
		mode:      opts.Mode,
		match:     opts.Match,
		minLength: opts.MinLength,
		jitter:    !opts.DisableJitter,
		rng:       opts.Rand,
		logger:    opts.Logger,
	}
	if a.mode == "" {
		a.mode = ModeEnhanced
	}
	if a.match == "" {
		a.match = MatchSubstring
	}
	if a.minLength <= 0 {
		a.minLength = DefaultMinLength
	}
	if a.rng == nil {
		a.rng = globalRand{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Mode reports the calculator set in use.
func (a *Analyzer) Mode() Mode { return a.mode }

// Evaluate scores transcript. It always returns a complete result.
func (a *Analyzer) Evaluate(transcript string) (res EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("communication evaluation panicked", "error", r, "mode", a.mode)
			res = degraded(r)
		}
	}()

	if utf8.RuneCountInString(strings.TrimSpace(transcript)) < a.minLength {
		return Fallback(ReasonTooShort, transcript, a.rng)
	}

	t := newText(transcript, a.match)
	fs := extract(t)
	base := a.score(fs, t)

	final := base
	if a.jitter {
		final = ScoreTriple{
			Clarity:      Jitter(base.Clarity, fs.WordCount, a.rng),
			Confidence:   Jitter(base.Confidence, fs.WordCount, a.rng),
			Articulation: Jitter(base.Articulation, fs.WordCount, a.rng),
		}
	}

	res = EvaluationResult{
		Transcription: transcript,
		Clarity:       final.Clarity,
		Confidence:    final.Confidence,
		Articulation:  final.Articulation,
		Analysis:      analysisOf(fs, a.mode),
	}
	if a.mode == ModeSimple {
		res.Feedback = composeSimpleFeedback(final)
		res.Suggestions = composeSimpleSuggestions(final)
	} else {
		res.Feedback = ComposeFeedback(final, fs)
		res.Suggestions = ComposeSuggestions(final, fs)
	}
	return res
}

// Fallback returns a randomized result carrying reason, for callers whose
// input never reached the analyzer (for example a failed transcription).
func (a *Analyzer) Fallback(reason, transcript string) (res EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("fallback evaluation panicked", "error", r)
			res = degraded(r)
		}
	}()
	return Fallback(reason, transcript, a.rng)
}

// BaseScores returns the clamped pre-jitter scores of transcript without
// the length check.
func (a *Analyzer) BaseScores(transcript string) (ScoreTriple, FeatureSet) {
	t := newText(transcript, a.match)
	fs := extract(t)
	return a.score(fs, t), fs
}

func (a *Analyzer) score(fs FeatureSet, t *text) ScoreTriple {
	if a.mode == ModeSimple {
		return scoreSimple(fs, t)
	}
	return scoreEnhanced(fs, t)
}

func analysisOf(fs FeatureSet, mode Mode) Analysis {
	return Analysis{
		WordCount:           fs.WordCount,
		SentenceCount:       fs.SentenceCount,
		AvgWordsPerSentence: roundTo(fs.AvgWordsPerSentence, 1),
		VocabularyDiversity: roundTo(fs.VocabularyDiversity, 2),
		SpeechQuality:       roundTo(fs.SpeechQuality, 2),
		FillerWords:         fs.FillerWordCount,
		ComplexityScore:     roundTo(fs.ComplexityScore, 2),
		FlowScore:           roundTo(fs.FlowScore, 2),
		FormalLanguage:      fs.FormalLanguageCount,
		HasQuestions:        fs.HasQuestions,
		HasExclamations:     fs.HasExclamations,
		TranscriptionLength: fs.TranscriptLength,
		Mode:                mode,
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
