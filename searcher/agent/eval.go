package agent

import (
	"context"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
	"scavenger/searcher"
)

type evaluationAgent struct {
	mcts *searcher.MCTS
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
func NewEvaluationAgent(mcts *searcher.MCTS) Agent {
	return evaluationAgent{mcts: mcts}
}

func (a evaluationAgent) FindMove(ctx context.Context, state *game.State, distances maze.Metric) (game.Direction, metrics.SearchMetric, error) {
	decision, err := a.mcts.Search(ctx, state, distances)
	return decision.Direction, decision.Metric, err
}
