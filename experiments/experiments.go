package experiments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"scavenger/engine"
	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/searcher"
	"scavenger/searcher/agent"
)

const (
	NumGames   = 10 // Per agent and level
	TimeBudget = 20 * time.Millisecond
)

type Level struct {
	Name     string
	Snapshot *game.Snapshot
}

type Settings struct {
	Games     int
	MaxTurns  int
	OutputDir string // No records are written when empty
	Levels    []Level

	// Baseline is the agent every sweep starts from. Zero fields take the
	// searcher defaults.
	Baseline metrics.AgentConfig
	Rewards  *searcher.Rewards // Defaults when nil
}

// Summary aggregates the games of one agent config.
type Summary struct {
	Agent       int
	Games       int
	EscapeRate  float64
	MeanMoves   float64
	StdMoves    float64
	MeanHealth  float64
	StdHealth   float64
	MeanEpisode float64 // Simulations per move
}

func RunDepthExperiment(ctx context.Context, settings Settings) ([]Summary, error) {
	baseline := settings.baseline()
	configs := []metrics.AgentConfig{}
	for i, depth := range []int{2, 5, searcher.DefaultDepthThreshold, 20} {
		config := baseline
		config.ID = i + 1
		config.DepthThreshold = depth
		configs = append(configs, config)
	}
	return runExperiment(ctx, "depth", configs, settings)
}

// RunDistanceExperiment compares maze distances with Manhattan distances and
// location keyed statistics with state keyed ones.
func RunDistanceExperiment(ctx context.Context, settings Settings) ([]Summary, error) {
	baseline := settings.baseline()
	configs := []metrics.AgentConfig{}
	for i, variant := range []struct {
		distance   string
		stateKeyed bool
	}{{"maze", false}, {"manhattan", false}, {"maze", true}, {"manhattan", true}} {
		config := baseline
		config.ID = i + 1
		config.Distance = variant.distance
		config.StateKeyed = variant.stateKeyed
		configs = append(configs, config)
	}
	return runExperiment(ctx, "distance", configs, settings)
}

func RunEpisodesExperiment(ctx context.Context, settings Settings) ([]Summary, error) {
	baseline := settings.baseline()
	configs := []metrics.AgentConfig{}
	for i, episodes := range []int{10, searcher.DefaultEpisodes, 100, 200} {
		config := baseline
		config.ID = i + 1
		config.Episodes = episodes
		config.Duration = 0
		configs = append(configs, config)
	}
	return runExperiment(ctx, "episodes", configs, settings)
}

func runExperiment(ctx context.Context, name string, configs []metrics.AgentConfig, settings Settings) ([]Summary, error) {
	if settings.Games <= 0 {
		settings.Games = NumGames
	}
	if len(settings.Levels) == 0 {
		return nil, fmt.Errorf("experiment %s: no levels", name)
	}
	run := uuid.NewString()

	// Run a number of games for each agent on each level
	count := 0
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}

	log.Info().Str("run", run).Msgf("starting %s experiment...", name)

	for ci, config := range configs {
		log.Info().Msgf("starting agent %d of %d with config=%+v...", ci+1, len(configs), config)

		for _, level := range settings.Levels {
			for i := 0; i < settings.Games; i++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				gameMetric, moveMetrics, err := runGame(ctx, config, settings.rewards(), uint64(i), level, settings.MaxTurns)
				if err != nil {
					return nil, fmt.Errorf("experiment %s agent %d level %s game %d: %w", name, config.ID, level.Name, i+1, err)
				}
				count++
				gameRecords = append(gameRecords, metrics.GameRecord{
					ID:         count,
					Agent:      config.ID,
					GameMetric: gameMetric,
				})
				for _, mm := range moveMetrics {
					moveRecords = append(moveRecords, metrics.MoveRecord{
						Game:       count,
						MoveMetric: mm,
					})
				}

				log.Debug().Msgf("completed agent %d level %s game %d: %s", config.ID, level.Name, i+1, gameMetric.Outcome)
			}
		}
		log.Info().Msgf("completed agent %d of %d", ci+1, len(configs))
	}

	log.Info().Msgf("completed %s experiment", name)

	summaries := summarize(configs, gameRecords, moveRecords)
	for _, s := range summaries {
		log.Info().Msgf("agent %d: escaped %.0f%% moves %.1f±%.1f health %.1f±%.1f", s.Agent, 100*s.EscapeRate, s.MeanMoves, s.StdMoves, s.MeanHealth, s.StdHealth)
	}

	if settings.OutputDir == "" {
		return summaries, nil
	}
	if err := store(settings.OutputDir, name+"-"+run[:8], configs, gameRecords, moveRecords); err != nil {
		return summaries, err
	}
	return summaries, nil
}

func store(root, name string, configs []metrics.AgentConfig, gameRecords []metrics.GameRecord, moveRecords []metrics.MoveRecord) error {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}

	// Store experiment metadata
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	// Store experiment results
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return fmt.Errorf("failed to store game records: %w", err)
	}
	log.Info().Msg("stored game records")

	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return fmt.Errorf("failed to store move records: %w", err)
	}
	log.Info().Msgf("stored move records in %s", writer.Dir())
	return nil
}

// runGame executes a single episode of level with a fresh agent.
func runGame(ctx context.Context, config metrics.AgentConfig, rewards searcher.Rewards, index uint64, level Level, maxTurns int) (metrics.GameMetric, []metrics.MoveMetric, error) {
	a := agent.NewEvaluationAgent(createMCTS(config, rewards, index))
	e := engine.LocalEngine(level.Name, level.Snapshot, a, maxTurns)
	return e.Run(ctx)
}

// createMCTS builds the search of config. Each game gets its own seed.
func createMCTS(config metrics.AgentConfig, rewards searcher.Rewards, index uint64) *searcher.MCTS {
	options := []searcher.Option{searcher.WithSeed(config.Seed + index), searcher.WithRewards(rewards)}

	if config.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.Episodes))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.DepthThreshold > 0 {
		options = append(options, searcher.WithDepthThreshold(config.DepthThreshold))
	}
	if config.PlayoutThreshold > 0 {
		options = append(options, searcher.WithPlayoutThreshold(config.PlayoutThreshold))
	}
	if config.Exploration > 0 {
		options = append(options, searcher.WithExploration(config.Exploration))
	}
	if config.Distance == "manhattan" {
		options = append(options, searcher.WithManhattanDistance())
	}
	if config.StateKeyed {
		options = append(options, searcher.WithStateKeyedStats())
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(options...)
}

func (s Settings) baseline() metrics.AgentConfig {
	b := s.Baseline
	b.ID = 0
	if b.Episodes <= 0 && b.Duration <= 0 {
		b.Episodes = searcher.DefaultEpisodes
	}
	if b.DepthThreshold <= 0 {
		b.DepthThreshold = searcher.DefaultDepthThreshold
	}
	if b.PlayoutThreshold <= 0 {
		b.PlayoutThreshold = searcher.DefaultPlayoutThreshold
	}
	if b.Exploration <= 0 {
		b.Exploration = searcher.DefaultExploration
	}
	if b.Distance == "" {
		b.Distance = "maze"
	}
	return b
}

func (s Settings) rewards() searcher.Rewards {
	if s.Rewards == nil {
		return searcher.DefaultRewards()
	}
	return *s.Rewards
}

func summarize(configs []metrics.AgentConfig, games []metrics.GameRecord, moves []metrics.MoveRecord) []Summary {
	agentOf := make(map[int]int, len(games))
	for _, g := range games {
		agentOf[g.ID] = g.Agent
	}
	episodes := make(map[int][]float64)
	for _, m := range moves {
		episodes[agentOf[m.Game]] = append(episodes[agentOf[m.Game]], float64(m.Episodes))
	}

	summaries := make([]Summary, 0, len(configs))
	for _, config := range configs {
		var moveCounts, health []float64
		escaped := 0
		for _, g := range games {
			if g.Agent != config.ID {
				continue
			}
			moveCounts = append(moveCounts, float64(g.TotalMoves))
			health = append(health, float64(g.Health))
			if g.Outcome == engine.Escaped {
				escaped++
			}
		}
		s := Summary{Agent: config.ID, Games: len(moveCounts)}
		if s.Games == 0 {
			summaries = append(summaries, s)
			continue
		}
		s.EscapeRate = float64(escaped) / float64(s.Games)
		s.MeanMoves, s.StdMoves = stat.MeanStdDev(moveCounts, nil)
		s.MeanHealth, s.StdHealth = stat.MeanStdDev(health, nil)
		if len(episodes[config.ID]) > 0 {
			s.MeanEpisode = stat.Mean(episodes[config.ID], nil)
		}
		summaries = append(summaries, s)
	}
	return summaries
}
