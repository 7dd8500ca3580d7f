package searcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
)

type Option func(mcts *MCTS)

// MCTS holds the configuration of the search. Every call to Search grows a
// fresh Tree, so nothing learnt in one decision cycle leaks into the next.
type MCTS struct {
	duration         time.Duration
	episodes         int
	depthThreshold   int
	playoutThreshold int
	exploration      float64
	seed             uint64
	rewards          Rewards
	manhattan        bool
	stateKeyed       bool
	metrics          metrics.Collector
}

// Decision is the outcome of one decision cycle.
type Decision struct {
	Direction  game.Direction
	Episodes   int // Simulations run, whether or not metrics are collected
	Successors []Successor
	Policy     map[game.Direction]float64
	Metric     metrics.SearchMetric
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

func WithDepthThreshold(depth int) Option {
	return func(m *MCTS) {
		if depth >= 0 {
			m.depthThreshold = depth
		}
	}
}

func WithPlayoutThreshold(steps int) Option {
	return func(m *MCTS) {
		if steps > 0 {
			m.playoutThreshold = steps
		}
	}
}

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c >= 0 {
			m.exploration = c
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

func WithRewards(rewards Rewards) Option {
	return func(m *MCTS) {
		m.rewards = rewards
	}
}

// WithManhattanDistance makes the search ignore the maze layout when
// measuring distances.
func WithManhattanDistance() Option {
	return func(m *MCTS) {
		m.manhattan = true
	}
}

// WithStateKeyedStats keys statistics by the full state instead of the
// player location alone.
func WithStateKeyedStats() Option {
	return func(m *MCTS) {
		m.stateKeyed = true
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		depthThreshold:   DefaultDepthThreshold,
		playoutThreshold: DefaultPlayoutThreshold,
		exploration:      DefaultExploration,
		rewards:          DefaultRewards(),
		metrics:          metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	return m
}

// Search runs simulations from root until the episode budget or the time
// budget is spent, whichever comes first, and commits to a direction. The
// context is only checked between simulations. When it is cancelled the
// decision reached so far is returned together with the context error.
// A search with metrics enabled must not run concurrently with another search
// of the same MCTS.
func (m *MCTS) Search(ctx context.Context, root *game.State, distances maze.Metric) (Decision, error) {
	if root == nil {
		return Decision{}, fmt.Errorf("%w: nil root", game.ErrInvalidSnapshot)
	}
	if m.manhattan || distances == nil {
		distances = maze.ManhattanMetric{}
	}
	tree := newTree(m, distances, rand.New(rand.NewSource(m.seed)))

	m.metrics.Start(m.depthThreshold, m.playoutThreshold, m.exploration)
	start := time.Now()
	var deadline time.Time
	if m.duration > 0 {
		deadline = start.Add(m.duration)
	}

	var searchErr error
	episodes := 0
	for ; m.episodes <= 0 || episodes < m.episodes; episodes++ {
		if err := ctx.Err(); err != nil {
			searchErr = err
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		if err := tree.Train(root); err != nil {
			return Decision{}, fmt.Errorf("simulation %d failed: %w", episodes, err)
		}
		m.metrics.AddEpisode()
	}
	metric := m.metrics.Complete()

	decision := Decision{
		Direction:  tree.NextDirection(root),
		Episodes:   episodes,
		Successors: tree.Successors(root),
		Policy:     tree.Policy(root),
		Metric:     metric,
	}
	log.Debug().
		Str("player", root.Player().String()).
		Str("direction", decision.Direction.String()).
		Int("episodes", episodes).
		Dur("elapsed", time.Since(start)).
		Msg("search complete")
	return decision, searchErr
}

// Tree returns an empty tree with the configuration of m. Callers that pace
// simulations themselves drive it through Train and NextDirection.
func (m *MCTS) Tree(distances maze.Metric) *Tree {
	if m.manhattan || distances == nil {
		distances = maze.ManhattanMetric{}
	}
	return newTree(m, distances, rand.New(rand.NewSource(m.seed)))
}

func (m *MCTS) Episodes() int {
	return m.episodes
}

func (m *MCTS) Duration() time.Duration {
	return m.duration
}
