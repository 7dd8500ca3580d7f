package agent

import (
	"context"
	"math"
	"sync"

	"golang.org/x/exp/rand"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
	"scavenger/searcher"
)

type trainingAgent struct {
	mcts        *searcher.MCTS
	temperature float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTrainingAgent returns a new agent that explores by sampling directions in
// proportion to root visit counts sharpened by 1/temperature.
func NewTrainingAgent(mcts *searcher.MCTS, temperature float64, seed uint64) Agent {
	if temperature <= 0 {
		temperature = 1
	}
	return &trainingAgent{mcts: mcts, temperature: temperature, rng: rand.New(rand.NewSource(seed))}
}

func (a *trainingAgent) FindMove(ctx context.Context, state *game.State, distances maze.Metric) (game.Direction, metrics.SearchMetric, error) {
	decision, err := a.mcts.Search(ctx, state, distances)
	if err != nil {
		return decision.Direction, decision.Metric, err
	}
	policy := adjustTemperature(decision.Policy, a.temperature)

	a.mu.Lock()
	defer a.mu.Unlock()
	direction, ok := sample(policy, a.rng)
	if !ok {
		return decision.Direction, decision.Metric, nil
	}
	return direction, decision.Metric, nil
}

func adjustTemperature(policy map[game.Direction]float64, temperature float64) map[game.Direction]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make(map[game.Direction]float64, len(policy))
	for direction, visit := range policy {
		prob := math.Pow(visit, exponent)
		sum += prob
		adjusted[direction] = prob
	}
	if sum == 0 {
		return map[game.Direction]float64{}
	}
	// Normalize
	for direction := range adjusted {
		adjusted[direction] /= sum
	}
	return adjusted
}

// sample draws a direction from policy. Directions are visited in a fixed
// order so that a seeded generator always yields the same choice.
func sample(policy map[game.Direction]float64, rng *rand.Rand) (game.Direction, bool) {
	if len(policy) == 0 {
		return game.Stop, false
	}
	sampled := rng.Float64()
	cumulative := 0.0
	var last game.Direction
	for _, direction := range game.Directions {
		prob, ok := policy[direction]
		if !ok || prob == 0 {
			continue
		}
		last = direction
		cumulative += prob
		if sampled < cumulative {
			return direction, true
		}
	}
	return last, true // Fallback in case of rounding errors
}
