package commskills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const introTranscript = "Hello my name is John and I like programming. I am confident and excited about this opportunity."

func TestExtractFeatures_Intro(t *testing.T) {
	fs := ExtractFeatures(introTranscript, MatchSubstring)

	assert.Equal(t, 17, fs.WordCount)
	assert.Equal(t, 2, fs.SentenceCount)
	assert.InDelta(t, 8.5, fs.AvgWordsPerSentence, 1e-9)
	assert.InDelta(t, 15.0/17.0, fs.VocabularyDiversity, 1e-9)
	assert.Equal(t, 1, fs.FillerWordCount)
	assert.Equal(t, 0.0, fs.ComplexityScore)
	assert.Equal(t, 1.0, fs.FlowScore)
	assert.Equal(t, 0, fs.FormalLanguageCount)
	assert.False(t, fs.HasQuestions)
	assert.False(t, fs.HasExclamations)
	assert.InDelta(t, 0.56, fs.SpeechQuality, 1e-9)
	assert.Equal(t, len(introTranscript), fs.TranscriptLength)
}

func TestExtractFeatures_NoTerminators(t *testing.T) {
	fs := ExtractFeatures("one two three four five six seven", MatchSubstring)

	assert.Equal(t, 7, fs.WordCount)
	assert.Equal(t, 1, fs.SentenceCount)
	assert.Equal(t, 7.0, fs.AvgWordsPerSentence)
}

func TestExtractFeatures_OnlyPunctuation(t *testing.T) {
	fs := ExtractFeatures("?!. ... !!", MatchSubstring)

	assert.Equal(t, 0, fs.SentenceCount)
	assert.Equal(t, 3.0, fs.AvgWordsPerSentence, "denominator floors at one")
	assert.Equal(t, 0.0, fs.FlowScore)
	assert.Equal(t, 0.0, fs.ComplexityScore)
	assert.True(t, fs.HasQuestions)
	assert.True(t, fs.HasExclamations)
}

func TestExtractFeatures_Empty(t *testing.T) {
	fs := ExtractFeatures("", MatchSubstring)

	assert.Equal(t, 0, fs.WordCount)
	assert.Equal(t, 0.0, fs.VocabularyDiversity)
	assert.Equal(t, 0.0, fs.AvgWordsPerSentence)
}

func TestExtractFeatures_SentenceShape(t *testing.T) {
	fs := ExtractFeatures("Short one. Tiny. Yes it is. Go now.", MatchSubstring)

	assert.Equal(t, 4, fs.SentenceCount)
	assert.Equal(t, 0.0, fs.FlowScore, "every sentence is under five words")
	assert.InDelta(t, 0.29, fs.SpeechQuality, 1e-9)

	long := "We gathered every single person from the department into the large hall to discuss the new schedule together."
	fs = ExtractFeatures(long, MatchSubstring)
	assert.Equal(t, 1.0, fs.ComplexityScore)
}

func TestExtractFeatures_FormalAndMarks(t *testing.T) {
	fs := ExtractFeatures("However, I believe we should plan carefully. Therefore we will decide today!", MatchSubstring)

	assert.Equal(t, 2, fs.FormalLanguageCount)
	assert.True(t, fs.HasExclamations)
	assert.False(t, fs.HasQuestions)
}

func TestExtractFeatures_Idempotent(t *testing.T) {
	inputs := []string{
		introTranscript,
		"Um, so like, I basically think this is kind of fine? Actually it is!",
		"   spaced    out   words   ",
	}
	for _, in := range inputs {
		assert.Equal(t, ExtractFeatures(in, MatchSubstring), ExtractFeatures(in, MatchSubstring))
		assert.Equal(t, ExtractFeatures(in, MatchToken), ExtractFeatures(in, MatchToken))
	}
}

func TestExtractFeatures_MatchModes(t *testing.T) {
	in := "I would like to explain how I likely lead the group."

	sub := ExtractFeatures(in, MatchSubstring)
	tok := ExtractFeatures(in, MatchToken)

	assert.Equal(t, 2, sub.FillerWordCount, "substring matching also hits likely")
	assert.Equal(t, 1, tok.FillerWordCount)
}

func TestCountTokenSeq(t *testing.T) {
	tokens := []string{"you", "know", "i", "mean", "you", "know"}

	assert.Equal(t, 2, countTokenSeq(tokens, []string{"you", "know"}))
	assert.Equal(t, 0, countTokenSeq(tokens, []string{"know", "you", "know", "i", "mean", "you", "know"}))
	assert.Equal(t, 0, countTokenSeq(tokens, nil))
}

func TestExtractFeatures_Ranges(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"um uh um uh um uh um uh um uh um uh like like like",
		introTranscript,
		"Why? Why not! Because. " + introTranscript,
	}
	for _, in := range inputs {
		for _, mode := range []MatchMode{MatchSubstring, MatchToken} {
			fs := ExtractFeatures(in, mode)
			require.GreaterOrEqual(t, fs.WordCount, 0)
			require.GreaterOrEqual(t, fs.FillerWordCount, 0)
			for _, ratio := range []float64{fs.VocabularyDiversity, fs.ComplexityScore, fs.FlowScore, fs.SpeechQuality} {
				assert.GreaterOrEqual(t, ratio, 0.0, in)
				assert.LessOrEqual(t, ratio, 1.0, in)
			}
		}
	}
}

func TestExtractFeatures_LengthCountsCharacters(t *testing.T) {
	fs := ExtractFeatures("Je suis très motivé.", MatchSubstring)
	assert.Equal(t, 20, fs.TranscriptLength)
	assert.Equal(t, 4, fs.WordCount)
}
