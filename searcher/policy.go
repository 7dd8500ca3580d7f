package searcher

import (
	"math"

	"golang.org/x/exp/rand"
)

// uct scores a child with mean reward mean and ni visits under a parent with
// np visits. Unvisited children are always preferred.
func uct(mean float64, np, ni int, c float64) float64 {
	if ni == 0 {
		return math.Inf(1)
	}
	var lnN float64
	if np > 1 {
		lnN = math.Log(float64(np))
	}
	return mean + c*math.Sqrt(lnN/float64(ni))
}

// argmax returns the index of the highest score, breaking ties uniformly at
// random. It returns 0 for an empty slice.
func argmax(scores []float64, rng *rand.Rand) int {
	if len(scores) == 0 {
		return 0
	}
	best := math.Inf(-1)
	var tied []int
	for i, s := range scores {
		switch {
		case s > best:
			best = s
			tied = append(tied[:0], i)
		case s == best:
			tied = append(tied, i)
		}
	}
	if len(tied) == 0 { // Every score is NaN
		return 0
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[rng.Intn(len(tied))]
}
