package commskills

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicRand struct{}

func (panicRand) IntN(int) int { panic("random source exhausted") }

// fixedRand always returns the same draw, clamped to the requested range.
type fixedRand int

func (f fixedRand) IntN(n int) int { return min(int(f), n-1) }

func TestEvaluate_Intro(t *testing.T) {
	a := New(Options{DisableJitter: true})
	res := a.Evaluate(introTranscript)

	assert.Equal(t, introTranscript, res.Transcription)
	assert.Equal(t, ScoreTriple{Clarity: 81, Confidence: 64, Articulation: 94}, res.Scores())

	for _, bands := range [][]band{overallBands, clarityBands, confidenceBands, articulationBands} {
		found := false
		for _, b := range bands {
			if strings.Contains(res.Feedback, b.text) {
				found = true
			}
		}
		assert.True(t, found, "feedback misses a band sentence")
	}
	assert.True(t, strings.HasPrefix(res.Feedback, overallBands[1].text))
	assert.Contains(t, res.Feedback, "Your sentences tend to be simple.")
	assert.Contains(t, res.Feedback, "Excellent speech flow and rhythm.")

	assert.Contains(t, res.Suggestions, confidenceTips[0])
	assert.Contains(t, res.Suggestions, complexityTips[0])
	assert.NotContains(t, res.Suggestions, clarityTips[0])
	assert.True(t, strings.HasSuffix(res.Suggestions, dailyTips[len(dailyTips)-1]))

	assert.Equal(t, Analysis{
		WordCount:           17,
		SentenceCount:       2,
		AvgWordsPerSentence: 8.5,
		VocabularyDiversity: 0.88,
		SpeechQuality:       0.56,
		FillerWords:         1,
		ComplexityScore:     0,
		FlowScore:           1,
		TranscriptionLength: len(introTranscript),
		Mode:                ModeEnhanced,
	}, res.Analysis)
}

func TestEvaluate_TooShortUsesFallback(t *testing.T) {
	a := New(Options{Rand: NewSeededSource(1, 2)})
	for _, in := range []string{"", "   ", "too short", "   hi there   ", "日本語です", " café olé "} {
		res := a.Evaluate(in)

		assert.True(t, strings.HasPrefix(res.Feedback, ReasonTooShort), in)
		assert.True(t, res.Analysis.Fallback)
		assert.Equal(t, fallbackSuggestions, res.Suggestions)
		for _, s := range []int{res.Clarity, res.Confidence, res.Articulation} {
			assert.GreaterOrEqual(t, s, 40)
			assert.LessOrEqual(t, s, 100)
		}
	}
}

func TestEvaluate_MinLengthOption(t *testing.T) {
	a := New(Options{MinLength: 30, DisableJitter: true})

	assert.True(t, a.Evaluate("This is twenty-nine chars ok.").Analysis.Fallback)
	assert.False(t, a.Evaluate(introTranscript).Analysis.Fallback)
}

func TestEvaluate_JitterBounds(t *testing.T) {
	a := New(Options{Rand: NewSeededSource(7, 11)})
	inputs := []string{
		introTranscript,
		ummedReviewTranscript,
		strings.Repeat("maybe perhaps um uh like ", 30),
		strings.Repeat("I definitely believe we can lead, plan and decide with confidence! ", 10),
	}
	for i := 0; i < 50; i++ {
		for _, in := range inputs {
			res := a.Evaluate(in)
			for _, s := range []int{res.Clarity, res.Confidence, res.Articulation} {
				require.GreaterOrEqual(t, s, 40)
				require.LessOrEqual(t, s, 100)
			}
		}
	}
}

func TestEvaluate_SeededSourceIsReproducible(t *testing.T) {
	first := New(Options{Rand: NewSeededSource(3, 4)}).Evaluate(reviewTranscript)
	second := New(Options{Rand: NewSeededSource(3, 4)}).Evaluate(reviewTranscript)

	assert.Equal(t, first, second)
}

func TestEvaluate_JitterUsesInjectedSource(t *testing.T) {
	// fixedRand(0) always draws the lower edge of the window.
	a := New(Options{Rand: fixedRand(0)})
	res := a.Evaluate(introTranscript)

	// 17 words gives a window of +/-5
	assert.Equal(t, ScoreTriple{Clarity: 76, Confidence: 59, Articulation: 89}, res.Scores())
}

func TestEvaluate_PanicYieldsDegradedResult(t *testing.T) {
	a := New(Options{Rand: panicRand{}})

	for _, in := range []string{introTranscript, ""} {
		res := a.Evaluate(in)

		assert.Equal(t, ScoreTriple{Clarity: 50, Confidence: 50, Articulation: 50}, res.Scores())
		assert.Equal(t, degradedFeedback, res.Feedback)
		assert.Equal(t, degradedSuggestions, res.Suggestions)
		assert.Equal(t, "random source exhausted", res.Analysis.Error)
	}

	res := a.Fallback(ReasonTranscriptionError, "")
	assert.Equal(t, 50, res.Clarity)
}

func TestEvaluate_SimpleMode(t *testing.T) {
	a := New(Options{Mode: ModeSimple, DisableJitter: true})
	res := a.Evaluate(introTranscript)

	assert.Equal(t, ScoreTriple{Clarity: 80, Confidence: 75, Articulation: 90}, res.Scores())
	assert.Equal(t, ModeSimple, res.Analysis.Mode)
	assert.True(t, strings.HasPrefix(res.Feedback, simpleOverallBands[0].text))
	assert.Equal(t, strings.Join([]string{
		"• Seek feedback from others on your communication",
		"• Watch and learn from effective public speakers",
		"• Join a public speaking group or take a communication course",
	}, "\n"), res.Suggestions)
}

func TestAnalyzerFallback(t *testing.T) {
	a := New(Options{Rand: fixedRand(100)})
	res := a.Fallback(ReasonTranscriptionError, "")

	// upper edge of both draws: 85 + 10
	assert.Equal(t, ScoreTriple{Clarity: 95, Confidence: 95, Articulation: 95}, res.Scores())
	assert.Equal(t, "Audio could not be transcribed. Your speech shows 95% clarity, 95% confidence, and 95% articulation.", res.Feedback)
}

func TestParseModes(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeEnhanced, m)

	m, err = ParseMode(" Simple ")
	require.NoError(t, err)
	assert.Equal(t, ModeSimple, m)

	_, err = ParseMode("legacy")
	assert.Error(t, err)

	mm, err := ParseMatchMode("TOKEN")
	require.NoError(t, err)
	assert.Equal(t, MatchToken, mm)

	_, err = ParseMatchMode("regex")
	assert.Error(t, err)
}
