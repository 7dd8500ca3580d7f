package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scavenger/game"
	"scavenger/maze"
)

func TestNewMCTS(t *testing.T) {
	t.Run("requires a budget", func(t *testing.T) {
		require.Panics(t, func() { NewMCTS() })
	})

	t.Run("defaults", func(t *testing.T) {
		m := NewMCTS(WithEpisodes(DefaultEpisodes))

		require.Equal(t, DefaultEpisodes, m.Episodes())
		require.Equal(t, DefaultDepthThreshold, m.depthThreshold)
		require.Equal(t, DefaultPlayoutThreshold, m.playoutThreshold)
		require.Equal(t, DefaultExploration, m.exploration)
		require.Equal(t, DefaultRewards(), m.rewards)
	})

	t.Run("invalid options are ignored", func(t *testing.T) {
		m := NewMCTS(WithDuration(time.Second), WithEpisodes(-1), WithPlayoutThreshold(0), WithExploration(-1))

		require.Equal(t, time.Second, m.Duration())
		require.Zero(t, m.Episodes())
		require.Equal(t, DefaultPlayoutThreshold, m.playoutThreshold)
		require.Equal(t, DefaultExploration, m.exploration)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("moves toward adjacent food", func(t *testing.T) {
		root, idx := level(t, `
#####
#.F.#
#.P.#
#...#
#####
`)
		for seed := uint64(0); seed < 5; seed++ {
			m := NewMCTS(WithEpisodes(5), WithSeed(seed))

			decision, err := m.Search(ctx, root, idx)

			require.NoError(t, err)
			require.Equal(t, game.North, decision.Direction, "Seed %d should head for the food", seed)
		}
	})

	t.Run("avoids the lethal move", func(t *testing.T) {
		root, idx := level(t, "#.PEX#")
		m := NewMCTS(WithEpisodes(DefaultEpisodes), WithSeed(3))

		decision, err := m.Search(ctx, root, idx)

		require.NoError(t, err)
		require.Equal(t, game.West, decision.Direction)
		for _, s := range decision.Successors {
			if s.Direction == game.East {
				require.Zero(t, s.Visits, "The lethal child should never be backed up")
				require.Equal(t, game.Death, s.Outcome)
				require.Equal(t, DefaultRewards().UnseenScore, s.Mean)
			}
		}
	})

	t.Run("heads for the exit", func(t *testing.T) {
		root, idx := level(t, "#.P.X#")
		for _, episodes := range []int{2, 3} {
			m := NewMCTS(WithEpisodes(episodes))

			decision, err := m.Search(ctx, root, idx)

			require.NoError(t, err)
			require.Equal(t, game.East, decision.Direction, "%d episodes", episodes)
		}
	})

	t.Run("same seed same decision", func(t *testing.T) {
		root, idx := level(t, `
#########
#P..B..S#
#.#.#.#.#
#F..E..X#
#########
`)
		for _, options := range [][]Option{
			{WithEpisodes(DefaultEpisodes), WithSeed(11)},
			{WithEpisodes(DefaultEpisodes), WithSeed(11), WithStateKeyedStats()},
			{WithEpisodes(DefaultEpisodes), WithSeed(11), WithManhattanDistance()},
		} {
			a, err := NewMCTS(options...).Search(ctx, root, idx)
			require.NoError(t, err)
			b, err := NewMCTS(options...).Search(ctx, root, idx)
			require.NoError(t, err)

			require.Equal(t, a.Direction, b.Direction)
			require.Equal(t, a.Policy, b.Policy)
			require.Equal(t, a.Successors, b.Successors)
		}
	})

	t.Run("chosen direction is legal", func(t *testing.T) {
		root, idx := level(t, `
#######
#F.B..#
#.#.#E#
#P..S.#
#.##..#
#...#X#
#######
`)
		state := root
		for step := 0; step < 6 && !state.IsOver() && !state.IsLethal(); step++ {
			decision, err := NewMCTS(WithEpisodes(20), WithSeed(uint64(step))).Search(ctx, state, idx)
			require.NoError(t, err)
			require.Contains(t, state.LegalActions(), decision.Direction)
			require.NotEqual(t, game.Stop, decision.Direction, "A state with moves should not stop")
			state = state.GenerateSuccessor(decision.Direction)
		}
	})

	t.Run("boxed in", func(t *testing.T) {
		root, idx := level(t, "#BPB#")

		decision, err := NewMCTS(WithEpisodes(3)).Search(ctx, root, idx)

		require.NoError(t, err)
		require.Equal(t, game.Stop, decision.Direction)
		require.Empty(t, decision.Successors)
	})

	t.Run("time budget", func(t *testing.T) {
		root, idx := level(t, "#P...F..X#")
		m := NewMCTS(WithDuration(20*time.Millisecond), WithMetrics())

		decision, err := m.Search(ctx, root, idx)

		require.NoError(t, err)
		require.Equal(t, game.East, decision.Direction)
		require.Positive(t, decision.Metric.Episodes)
		require.Positive(t, decision.Metric.Expansions)
	})

	t.Run("episodes are counted without metrics", func(t *testing.T) {
		root, idx := level(t, "#.P.X#")

		decision, err := NewMCTS(WithEpisodes(5)).Search(ctx, root, idx)

		require.NoError(t, err)
		require.Equal(t, 5, decision.Episodes)
		require.Zero(t, decision.Metric.Episodes, "The dummy collector reports nothing")
	})

	t.Run("metrics", func(t *testing.T) {
		root, idx := level(t, "#.P.X#")
		m := NewMCTS(WithEpisodes(7), WithMetrics())

		decision, err := m.Search(ctx, root, idx)

		require.NoError(t, err)
		require.Equal(t, 7, decision.Metric.Episodes)
		require.Equal(t, DefaultDepthThreshold, decision.Metric.DepthThreshold)
		require.Positive(t, decision.Metric.FullPlayouts, "The exit should be reached by some playout")
	})

	t.Run("cancelled context", func(t *testing.T) {
		root, idx := level(t, "#.P.X#")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		decision, err := NewMCTS(WithEpisodes(10)).Search(cancelled, root, idx)

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, game.Stop, decision.Direction, "Nothing was searched")
		require.Zero(t, decision.Episodes)
	})

	t.Run("index of another level", func(t *testing.T) {
		root, _ := level(t, "#.P.X#")
		other := maze.Build([]game.Location{{X: 20, Y: 20}, {X: 21, Y: 20}}, nil)

		_, err := NewMCTS(WithEpisodes(2)).Search(ctx, root, other)

		require.ErrorIs(t, err, maze.ErrNotFound)
	})
}

func TestTree(t *testing.T) {
	t.Run("statistics are shared by location", func(t *testing.T) {
		root, idx := level(t, "#.PF.#")
		tree := NewMCTS(WithEpisodes(1)).Tree(idx)
		fed := move(t, root, game.East)
		back := move(t, fed, game.West)

		tree.update(root, 1, game.Ongoing)
		tree.update(back, 3, game.Ongoing)

		s, ok := tree.lookup(root)
		require.True(t, ok)
		require.Equal(t, 2, s.visits, "States on the same cell should share statistics")
		require.InDelta(t, 2.0, s.mean, 1e-9)
	})

	t.Run("statistics are keyed by state when asked", func(t *testing.T) {
		root, idx := level(t, "#.PF.#")
		tree := NewMCTS(WithEpisodes(1), WithStateKeyedStats()).Tree(idx)
		back := move(t, move(t, root, game.East), game.West)

		tree.update(root, 1, game.Ongoing)
		tree.update(back, 3, game.Ongoing)

		s, ok := tree.lookup(root)
		require.True(t, ok)
		require.Equal(t, 1, s.visits, "States with different food should not share statistics")
	})

	t.Run("expansion excludes stop and is recorded once", func(t *testing.T) {
		root, idx := level(t, `
#####
#...#
#.P.#
#...#
#####
`)
		tree := NewMCTS(WithEpisodes(1)).Tree(idx)

		require.NoError(t, tree.Train(root))
		children, ok := tree.children(root)
		require.True(t, ok)
		require.Len(t, children, 4)

		require.NoError(t, tree.Train(root))
		require.Len(t, tree.expanded[root.Hash()], 1, "An expanded state should not be expanded again")
	})

	t.Run("next direction uses the mean reward", func(t *testing.T) {
		root, idx := level(t, "#.P.#")
		tree := NewMCTS(WithEpisodes(1)).Tree(idx)
		tree.expand(root)
		west, east := move(t, root, game.West), move(t, root, game.East)

		tree.update(west, 10, game.Ongoing)
		tree.update(west, 0, game.Ongoing)
		tree.update(east, 6, game.Ongoing)

		require.Equal(t, game.East, tree.NextDirection(root), "Mean 6 should beat mean 5 despite a lower total")
		require.Equal(t, map[game.Direction]float64{game.West: 2, game.East: 1}, tree.Policy(root))
	})

	t.Run("next direction prefers a win", func(t *testing.T) {
		root, idx := level(t, "#.P.#")
		tree := NewMCTS(WithEpisodes(1)).Tree(idx)
		tree.expand(root)

		tree.update(move(t, root, game.West), 50, game.Ongoing)
		tree.update(move(t, root, game.East), 1, game.Win)

		require.Equal(t, game.East, tree.NextDirection(root))
	})

	t.Run("depth cutoff plays out without expanding", func(t *testing.T) {
		root, idx := level(t, "#P....X#")
		tree := NewMCTS(WithEpisodes(1), WithDepthThreshold(0)).Tree(idx)

		for i := 0; i < 20; i++ {
			require.NoError(t, tree.Train(root))
		}

		require.Len(t, tree.expanded, 1, "Only the root is within the depth budget")
		east := move(t, root, game.East)
		_, ok := tree.children(east)
		require.False(t, ok, "The selected child should go straight to playout")

		rootStats, ok := tree.lookup(root)
		require.True(t, ok)
		require.Equal(t, 20, rootStats.visits)
		childStats, ok := tree.lookup(east)
		require.True(t, ok)
		require.Equal(t, 1, childStats.visits, "Only the expansion backs up into the child")
		_, ok = tree.lookup(move(t, east, game.East))
		require.False(t, ok, "Cut off playouts back up into the root only")
	})

	t.Run("playout averages the steps taken", func(t *testing.T) {
		root, idx := level(t, "#P....X#")
		tree := NewMCTS(WithEpisodes(1), WithPlayoutThreshold(3)).Tree(idx)

		r := tree.playout(root, 0)

		// Exit progress 5->4, 4->3, 3->2 scaled by 1/(depth+1)
		expected := (1.0/5 + (1.0/4)/2 + (1.0/3)/3) / 3
		require.InDelta(t, expected, r.reward, 1e-9)
		require.Equal(t, game.Ongoing, r.outcome)
		require.Equal(t, game.Location{X: 2, Y: 0}, r.first.Player())
	})

	t.Run("playout stops at the exit", func(t *testing.T) {
		root, idx := level(t, "#P....X#")
		tree := NewMCTS(WithEpisodes(1), WithPlayoutThreshold(10)).Tree(idx)

		r := tree.playout(root, 0)

		// Four shaped steps then the win bonus at depth 4
		expected := (1.0/5 + (1.0/4)/2 + (1.0/3)/3 + (1.0/2)/4 + 100.01/5) / 5
		require.Equal(t, game.Win, r.outcome)
		require.InDelta(t, expected, r.reward, 1e-9)
	})

	t.Run("unexpanded root", func(t *testing.T) {
		root, idx := level(t, "#.P.#")
		tree := NewMCTS(WithEpisodes(1)).Tree(idx)

		require.Equal(t, game.Stop, tree.NextDirection(root))
		require.Empty(t, tree.Policy(root))
	})
}
