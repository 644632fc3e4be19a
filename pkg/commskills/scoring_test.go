package commskills

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	reviewTranscript = "I want to talk today about how our team prepares for the final project review. " +
		"We meet every week and share progress with each other before the final deadline arrives."
	ummedReviewTranscript = "um um um um um " + reviewTranscript
)

func TestBaseScores_Intro(t *testing.T) {
	a := New(Options{})
	s, _ := a.BaseScores(introTranscript)

	assert.Equal(t, ScoreTriple{Clarity: 81, Confidence: 64, Articulation: 94}, s)
	assert.Greater(t, s.Confidence, 55)
}

func TestBaseScores_FillerPenaltyAppliedOnce(t *testing.T) {
	a := New(Options{})
	s, fs := a.BaseScores(ummedReviewTranscript)

	assert.Equal(t, 35, fs.WordCount)
	assert.Equal(t, 5, fs.FillerWordCount)

	// base + avg in [8,18] + word count >= 25 - min(15, 5*2) + quality
	want := 60 + 12 + 10 - 10 + int(math.Round(fs.SpeechQuality*10))
	assert.Equal(t, want, s.Clarity)
	assert.Equal(t, 79, s.Clarity)
	assert.Equal(t, 40, s.Confidence)
}

func TestBaseScores_Formal(t *testing.T) {
	a := New(Options{})
	s, _ := a.BaseScores("However, I believe we should plan carefully. Therefore we will decide today!")

	assert.Equal(t, ScoreTriple{Clarity: 72, Confidence: 74, Articulation: 93}, s)
}

func TestBaseScores_ShortChoppySentences(t *testing.T) {
	a := New(Options{})
	s, fs := a.BaseScores("Short one. Tiny. Yes it is. Go now.")

	assert.Equal(t, 0.0, fs.FlowScore)
	assert.Equal(t, ScoreTriple{Clarity: 63, Confidence: 55, Articulation: 70}, s)
}

func TestBaseScores_Bounds(t *testing.T) {
	inputs := []string{
		strings.Repeat("um like uh you know basically ", 40),
		strings.Repeat("maybe perhaps possibly might could should would ", 20),
		strings.Repeat("I am confident, certain and absolutely sure. I believe I will lead and decide! ", 30),
		strings.Repeat("explain clear simple direct obvious apparent understand ", 30),
		"x",
	}
	for _, mode := range []Mode{ModeEnhanced, ModeSimple} {
		for _, match := range []MatchMode{MatchSubstring, MatchToken} {
			a := New(Options{Mode: mode, Match: match})
			for _, in := range inputs {
				s, _ := a.BaseScores(in)
				assert.GreaterOrEqual(t, s.Clarity, 0)
				assert.LessOrEqual(t, s.Clarity, 100)
				assert.GreaterOrEqual(t, s.Confidence, 30)
				assert.LessOrEqual(t, s.Confidence, 100)
				assert.GreaterOrEqual(t, s.Articulation, 0)
				assert.LessOrEqual(t, s.Articulation, 100)
				if mode == ModeEnhanced {
					assert.GreaterOrEqual(t, s.Articulation, 35)
				}
			}
		}
	}
}

func TestBaseScores_FillerMonotonic(t *testing.T) {
	a := New(Options{})
	prev, _ := a.BaseScores(reviewTranscript)
	for n := 1; n <= 6; n++ {
		in := strings.TrimSpace(strings.Repeat("um ", n)) + " " + reviewTranscript
		cur, fs := a.BaseScores(in)
		assert.Equal(t, n, fs.FillerWordCount)
		assert.Less(t, cur.Clarity, prev.Clarity, "clarity with %d fillers", n)
		if prev.Confidence > 30 {
			assert.Less(t, cur.Confidence, prev.Confidence, "confidence with %d fillers", n)
		} else {
			assert.Equal(t, 30, cur.Confidence)
		}
		prev = cur
	}
}

func TestBaseScores_MatchModeChangesMarkerHits(t *testing.T) {
	in := "I would like to explain how I likely lead the group."

	sub, _ := New(Options{Match: MatchSubstring}).BaseScores(in)
	tok, _ := New(Options{Match: MatchToken}).BaseScores(in)

	assert.Equal(t, ScoreTriple{Clarity: 77, Confidence: 51, Articulation: 94}, sub)
	assert.Equal(t, ScoreTriple{Clarity: 79, Confidence: 54, Articulation: 94}, tok)
}

func TestBaseScores_Simple(t *testing.T) {
	a := New(Options{Mode: ModeSimple})
	s, _ := a.BaseScores(introTranscript)

	assert.Equal(t, ScoreTriple{Clarity: 80, Confidence: 75, Articulation: 90}, s)
}

func TestScoreTripleAverage(t *testing.T) {
	assert.InDelta(t, 70.0, ScoreTriple{60, 70, 80}.Average(), 1e-9)
}
