package engine

import (
	"context"

	"scavenger/experiments/metrics"
)

// Health gained on pickup.
const (
	FoodHealth = 10
	SodaHealth = 20
)

// Outcomes of an episode.
const (
	Escaped  = "escaped"
	Killed   = "killed"
	Starved  = "starved"
	TimedOut = "max_turns"
)

type Engine interface {
	// Run plays an episode till the player escapes, dies or a max number of turns is reached
	Run(ctx context.Context) (gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}
