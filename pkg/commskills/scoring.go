package commskills

import "math"

// ScoreTriple is the pre-jitter result of the three score calculators.
type ScoreTriple struct {
	Clarity      int `json:"clarity"`
	Confidence   int `json:"confidence"`
	Articulation int `json:"articulation"`
}

// Average is the arithmetic mean used for the overall feedback band.
func (s ScoreTriple) Average() float64 {
	return float64(s.Clarity+s.Confidence+s.Articulation) / 3
}

func scoreEnhanced(fs FeatureSet, t *text) ScoreTriple {
	return ScoreTriple{
		Clarity:      clarityScore(fs, t),
		Confidence:   confidenceScore(fs, t),
		Articulation: articulationScore(fs, t),
	}
}

func clarityScore(fs FeatureSet, t *text) int {
	score := 60
	switch avg := fs.AvgWordsPerSentence; {
	case avg >= 8 && avg <= 18:
		score += 12
	case avg >= 5 && avg <= 25:
		score += 6
	}
	switch {
	case fs.WordCount >= 25:
		score += 10
	case fs.WordCount >= 15:
		score += 5
	}
	score += 4 * t.count(clarityMarkers)
	score -= min(2*fs.FillerWordCount, 15)
	score += int(math.Round(fs.SpeechQuality * 10))
	return clamp(score, 0, 100)
}

func confidenceScore(fs FeatureSet, t *text) int {
	score := 55
	score += 6 * t.count(strongMarkers)
	score += 3 * t.count(moderateMarkers)
	score += 5 * t.count(leadershipMarkers)
	score -= 3 * t.count(uncertainMarkers)
	score -= min(3*fs.FillerWordCount, 20)
	score += min(3*fs.FormalLanguageCount, 10)
	return clamp(score, 30, 100)
}

func articulationScore(fs FeatureSet, t *text) int {
	score := 65
	switch {
	case fs.WordCount >= 35:
		score += 12
	case fs.WordCount >= 25:
		score += 8
	case fs.WordCount >= 15:
		score += 4
	}
	switch d := fs.VocabularyDiversity; {
	case d > 0.8:
		score += 15
	case d > 0.6:
		score += 10
	case d > 0.4:
		score += 5
	}
	score += 4 * t.count(articulateMarkers)
	score += int(math.Round(fs.ComplexityScore * 15))
	score += int(math.Round(fs.FlowScore * 10))
	if fs.FlowScore < 0.3 {
		score -= 10
	}
	if fs.HasQuestions {
		score += 5
	}
	if fs.HasExclamations {
		score += 3
	}
	return clamp(score, 35, 100)
}

// scoreSimple is the lighter calculator set selected by ModeSimple.
func scoreSimple(fs FeatureSet, t *text) ScoreTriple {
	clarity := 70
	switch avg := fs.AvgWordsPerSentence; {
	case avg >= 10 && avg <= 20:
		clarity += 10
	case avg >= 5 && avg <= 25:
		clarity += 5
	}
	switch {
	case fs.WordCount >= 20:
		clarity += 10
	case fs.WordCount >= 10:
		clarity += 5
	}
	clarity += 5 * t.count(simpleClarityMarkers)

	confidence := 65 + min(3*t.count(simplePositiveKeywords), 20)
	confidence += 5 * t.count(simpleConfidenceMarkers)
	confidence -= 3 * t.count(simpleHesitationMarkers)

	articulation := 75
	switch d := fs.VocabularyDiversity; {
	case d > 0.7:
		articulation += 15
	case d > 0.6:
		articulation += 10
	case d > 0.5:
		articulation += 5
	}
	articulation += 5 * t.count(simpleArticulateMarkers)

	return ScoreTriple{
		Clarity:      clamp(clarity, 0, 100),
		Confidence:   clamp(confidence, 30, 100),
		Articulation: clamp(articulation, 0, 100),
	}
}
