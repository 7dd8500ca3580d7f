package agent

import (
	"context"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
)

type Agent interface {
	// FindMove returns the direction to play and performance metrics (if collected) from the search.
	// When ctx ends early the best direction found so far is returned with the context error.
	FindMove(ctx context.Context, state *game.State, distances maze.Metric) (game.Direction, metrics.SearchMetric, error)
}
