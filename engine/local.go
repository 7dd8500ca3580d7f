package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
	"scavenger/meta"
	"scavenger/searcher/agent"
	"scavenger/utils"
)

var _ Engine = (*Local)(nil)

// Local owns the live world of one episode and applies the agent's moves to
// it. Enemies do not move; their scripts live outside this repository.
type Local struct {
	name     string
	world    *game.Snapshot
	agent    agent.Agent
	index    *maze.Index
	maxTurns int
}

// LocalEngine prepares an episode on a copy of level. The distance index is
// built once here and reused by every decision.
func LocalEngine(name string, level *game.Snapshot, a agent.Agent, maxTurns int) *Local {
	if maxTurns <= 0 {
		maxTurns = meta.MAX_TURNS
	}
	world := level.Clone()
	return &Local{
		name:     name,
		world:    world,
		agent:    a,
		index:    maze.Build(world.Floor, world.BreakableWalls),
		maxTurns: maxTurns,
	}
}

// World exposes the live world the engine mutates.
func (e *Local) World() game.World {
	return e.world
}

// Run executes the entire game loop until the episode ends.
func (e *Local) Run(ctx context.Context) (metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{Level: e.name, StartTime: time.Now()}
	var moveMetrics []metrics.MoveMetric

	log.Debug().Msgf("starting %s at %v with health %d", e.name, e.world.Player, e.world.Health)

	outcome := ""
	turn := 0
	for ; turn < e.maxTurns; turn++ {
		state, err := game.NewState(e.world)
		if err != nil {
			return gameMetric, moveMetrics, fmt.Errorf("turn %d: %w", turn, err)
		}
		direction, searchMetric, err := e.agent.FindMove(ctx, state, e.index)
		if err != nil {
			return gameMetric, moveMetrics, fmt.Errorf("turn %d: %w", turn, err)
		}
		if err := game.CheckAction(state.Player(), state.Data(), direction); err != nil {
			log.Warn().Err(err).Msg("staying put")
			direction = game.Stop
		}

		ate, drank := e.step(direction)
		if ate {
			gameMetric.Food++
		}
		if drank {
			gameMetric.Soda++
		}
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         turn,
			Direction:    direction.String(),
			Health:       e.world.Health,
			SearchMetric: searchMetric,
		})

		if outcome = e.outcome(); outcome != "" {
			turn++
			break
		}
	}
	if outcome == "" {
		outcome = TimedOut
	}

	gameMetric.Outcome = outcome
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = turn
	gameMetric.Health = e.world.Health
	log.Info().Msgf("%s: %s after %d moves with health %d", e.name, outcome, turn, e.world.Health)
	return gameMetric, moveMetrics, nil
}

// step moves the player and applies pickups. Every move costs one health.
func (e *Local) step(direction game.Direction) (ate, drank bool) {
	w := e.world
	w.Player = w.Player.Add(direction)
	w.Health--
	if w.Food, ate = utils.Take(w.Food, w.Player); ate {
		w.Health += FoodHealth
	}
	if w.Soda, drank = utils.Take(w.Soda, w.Player); drank {
		w.Health += SodaHealth
	}
	return ate, drank
}

func (e *Local) outcome() string {
	w := e.world
	switch {
	case utils.FindIndex(w.Enemies, w.Player) >= 0:
		return Killed
	case w.Player == w.Exit:
		return Escaped
	case w.Health <= 0:
		return Starved
	default:
		return ""
	}
}
