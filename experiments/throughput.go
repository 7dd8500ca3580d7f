package experiments

import (
	"context"
	"time"

	"scavenger/experiments/metrics"
)

// RunThroughputExperiment measures how many simulations fit in growing time
// budgets. MeanEpisode of each summary is the throughput per decision.
func RunThroughputExperiment(ctx context.Context, settings Settings) ([]Summary, error) {
	baseline := settings.baseline()
	configs := []metrics.AgentConfig{}
	for i, budget := range []time.Duration{TimeBudget / 4, TimeBudget / 2, TimeBudget, 2 * TimeBudget} {
		config := baseline
		config.ID = i + 1
		config.Episodes = 0
		config.Duration = budget
		configs = append(configs, config)
	}
	return runExperiment(ctx, "throughput", configs, settings)
}
