package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"scavenger/game"
	"scavenger/maze"
)

// level parses an ASCII level and returns its root state and distance index.
func level(t *testing.T, text string) (*game.State, *maze.Index) {
	t.Helper()
	snap, err := game.ParseLevel(t.Name(), text)
	require.NoError(t, err)
	root, err := game.NewState(snap)
	require.NoError(t, err)
	return root, maze.Build(snap.Floor, snap.BreakableWalls)
}

func move(t *testing.T, state *game.State, d game.Direction) *game.State {
	t.Helper()
	require.Contains(t, state.LegalActions(), d)
	return state.GenerateSuccessor(d)
}
