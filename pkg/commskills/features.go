package commskills

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// FeatureSet holds the lexical measurements derived from a single transcript.
// Ratio fields are in [0,1]; counts are never negative.
type FeatureSet struct {
	WordCount           int
	SentenceCount       int
	AvgWordsPerSentence float64
	VocabularyDiversity float64
	FillerWordCount     int
	ComplexityScore     float64
	FlowScore           float64
	FormalLanguageCount int
	HasQuestions        bool
	HasExclamations     bool
	SpeechQuality       float64
	TranscriptLength    int
}

// text is a transcript split once into the views the extractor and scorers need.
type text struct {
	raw       string
	lower     string
	words     []string
	tokens    []string // lowercased words with wordTrimSet stripped
	sentences []string // trimmed, non-empty
	match     MatchMode
}

func newText(raw string, match MatchMode) *text {
	t := &text{
		raw:   raw,
		lower: strings.ToLower(raw),
		words: strings.Fields(raw),
		match: match,
	}
	t.tokens = make([]string, len(t.words))
	for i, w := range t.words {
		t.tokens[i] = strings.Trim(strings.ToLower(w), wordTrimSet)
	}
	for _, s := range sentenceBoundary.Split(raw, -1) {
		if s = strings.TrimSpace(s); s != "" {
			t.sentences = append(t.sentences, s)
		}
	}
	return t
}

// count returns the number of hits of every term, summed over terms.
// Substring mode counts occurrences inside the lowercased text, so "like"
// also hits "likely". Token mode only counts whole words or word sequences.
func (t *text) count(terms []string) int {
	n := 0
	for _, term := range terms {
		if t.match == MatchToken {
			n += countTokenSeq(t.tokens, strings.Fields(term))
		} else {
			n += strings.Count(t.lower, term)
		}
	}
	return n
}

func countTokenSeq(tokens, seq []string) int {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return 0
	}
	n := 0
	for i := 0; i+len(seq) <= len(tokens); i++ {
		hit := true
		for j, w := range seq {
			if tokens[i+j] != w {
				hit = false
				break
			}
		}
		if hit {
			n++
		}
	}
	return n
}

// ExtractFeatures computes the FeatureSet of transcript.
func ExtractFeatures(transcript string, match MatchMode) FeatureSet {
	return extract(newText(transcript, match))
}

func extract(t *text) FeatureSet {
	fs := FeatureSet{
		WordCount:        len(t.words),
		SentenceCount:    len(t.sentences),
		FillerWordCount:  t.count(fillerWords),
		HasQuestions:     strings.Contains(t.raw, "?"),
		HasExclamations:  strings.Contains(t.raw, "!"),
		TranscriptLength: utf8.RuneCountInString(t.raw),
	}
	fs.AvgWordsPerSentence = float64(fs.WordCount) / float64(max(fs.SentenceCount, 1))

	if fs.WordCount > 0 {
		unique := make(map[string]struct{}, len(t.tokens))
		for _, tok := range t.tokens {
			unique[tok] = struct{}{}
		}
		fs.VocabularyDiversity = float64(len(unique)) / float64(fs.WordCount)
	}

	for _, tok := range t.tokens {
		for _, f := range formalWords {
			if tok == f {
				fs.FormalLanguageCount++
			}
		}
	}

	if n := len(t.sentences); n > 0 {
		long, short := 0, 0
		for _, s := range t.sentences {
			wc := len(strings.Fields(s))
			if wc > 15 {
				long++
			}
			if wc < 5 {
				short++
			}
		}
		fs.ComplexityScore = float64(long) / float64(n)
		fs.FlowScore = 1 - float64(short)/float64(n)
	}

	fs.SpeechQuality = speechQuality(fs)
	return fs
}

func speechQuality(fs FeatureSet) float64 {
	filler := 1 - math.Min(float64(fs.FillerWordCount)/10, 0.5)
	complexity := math.Min(fs.ComplexityScore, 1)
	length := math.Min(float64(fs.WordCount)/50, 1)
	return (filler + complexity + fs.FlowScore + length) / 4
}
