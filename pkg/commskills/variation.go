package commskills

import "math/rand/v2"

// RandSource is the random source consumed by the variation injector and the
// fallback generator. *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

// globalRand draws from the goroutine-safe top-level math/rand/v2 generator.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewSeededSource returns a deterministic source for reproducible evaluations.
func NewSeededSource(seed1, seed2 uint64) RandSource {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// uniform draws an integer from [lo, hi].
func uniform(rng RandSource, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// jitterRange is the half-width of the jitter window for a transcript of wordCount words.
func jitterRange(wordCount int) int {
	return clamp(wordCount/10, 5, 15)
}

// Jitter adds uniform noise scaled to the transcript length and clamps the
// result to [40,100].
func Jitter(score, wordCount int, rng RandSource) int {
	v := jitterRange(wordCount)
	return clamp(score+uniform(rng, -v, v), 40, 100)
}
