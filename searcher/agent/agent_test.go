package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
	"scavenger/searcher"
)

func corridor(t *testing.T) (*game.Snapshot, *game.State, *maze.Index) {
	t.Helper()
	snap, err := game.ParseLevel("corridor", "#.P.X#")
	require.NoError(t, err)
	state, err := game.NewState(snap)
	require.NoError(t, err)
	return snap, state, maze.Build(snap.Floor, snap.BreakableWalls)
}

func TestEvaluationAgent(t *testing.T) {
	_, state, idx := corridor(t)
	a := NewEvaluationAgent(searcher.NewMCTS(searcher.WithEpisodes(3), searcher.WithMetrics()))

	direction, metric, err := a.FindMove(context.Background(), state, idx)

	require.NoError(t, err)
	require.Equal(t, game.East, direction)
	require.Equal(t, 3, metric.Episodes)
}

func TestTrainingAgent(t *testing.T) {
	t.Run("samples legal directions reproducibly", func(t *testing.T) {
		_, state, idx := corridor(t)
		mcts := searcher.NewMCTS(searcher.WithEpisodes(10))
		a := NewTrainingAgent(mcts, 1, 5)
		b := NewTrainingAgent(mcts, 1, 5)

		for i := 0; i < 10; i++ {
			da, _, err := a.FindMove(context.Background(), state, idx)
			require.NoError(t, err)
			db, _, err := b.FindMove(context.Background(), state, idx)
			require.NoError(t, err)
			require.Equal(t, da, db, "Same seed should sample the same directions")
			require.Contains(t, []game.Direction{game.East, game.West}, da)
		}
	})

	t.Run("adjust temperature", func(t *testing.T) {
		policy := map[game.Direction]float64{game.North: 3, game.East: 1}

		flat := adjustTemperature(policy, 1)
		sharp := adjustTemperature(policy, 0.5)

		require.InDelta(t, 0.75, flat[game.North], 1e-9)
		require.InDelta(t, 0.25, flat[game.East], 1e-9)
		require.InDelta(t, 0.9, sharp[game.North], 1e-9)
		require.Empty(t, adjustTemperature(map[game.Direction]float64{game.West: 0}, 1))
	})

	t.Run("sample skips impossible directions", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 50; i++ {
			d, ok := sample(map[game.Direction]float64{game.South: 0, game.West: 1}, rng)
			require.True(t, ok)
			require.Equal(t, game.West, d)
		}
		_, ok := sample(nil, rng)
		require.False(t, ok)
	})
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(NewEvaluationAgent(searcher.NewMCTS(searcher.WithEpisodes(3))), time.Second)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func TestFindMoveHandler(t *testing.T) {
	snap, _, _ := corridor(t)

	t.Run("returns a direction", func(t *testing.T) {
		s, srv := newTestServer(t)
		body, err := json.Marshal(FindMoveRequest{Snapshot: snap})
		require.NoError(t, err)

		resp, err := http.Post(srv.URL+"/findmove", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out FindMoveResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Equal(t, game.East, out.Direction)
		require.Empty(t, out.Error)
		require.Equal(t, 1, s.Levels())
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		_, srv := newTestServer(t)
		bad := snap.Clone()
		bad.Player = game.Location{X: 40, Y: 40}
		body, err := json.Marshal(FindMoveRequest{Snapshot: bad})
		require.NoError(t, err)

		resp, err := http.Post(srv.URL+"/findmove", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var out FindMoveResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Equal(t, game.Stop, out.Direction)
		require.NotEmpty(t, out.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, srv := newTestServer(t)

		resp, err := http.Post(srv.URL+"/findmove", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("oversized body", func(t *testing.T) {
		_, srv := newTestServer(t)
		body := `{"snapshot":` + strings.Repeat(" ", maxRequestBytes) + `null}`

		resp, err := http.Post(srv.URL+"/findmove", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		_, srv := newTestServer(t)

		resp, err := http.Get(srv.URL + "/findmove")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestSessionHandler(t *testing.T) {
	snap, _, _ := corridor(t)
	s, srv := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var session string
	for _, player := range []game.Location{{X: 2, Y: 0}, {X: 3, Y: 0}} {
		step := snap.Clone()
		step.Player = player
		require.NoError(t, conn.WriteJSON(FindMoveRequest{Snapshot: step}))

		var out FindMoveResponse
		require.NoError(t, conn.ReadJSON(&out))
		require.Empty(t, out.Error)
		require.Equal(t, game.East, out.Direction, "Player at %v should head for the exit", player)
		require.NotEmpty(t, out.Session)
		if session != "" {
			require.Equal(t, session, out.Session, "Messages of one connection share a session")
		}
		session = out.Session
	}
	require.Equal(t, 1, s.Levels(), "The level should be indexed once")

	require.NoError(t, conn.WriteJSON(FindMoveRequest{}))
	var out FindMoveResponse
	require.NoError(t, conn.ReadJSON(&out))
	require.NotEmpty(t, out.Error, "A missing snapshot should be reported, not fatal")
}

// slowAgent reports the direction it settled on when its deadline passed.
type slowAgent struct {
	direction game.Direction
	err       error
}

func (a slowAgent) FindMove(ctx context.Context, _ *game.State, _ maze.Metric) (game.Direction, metrics.SearchMetric, error) {
	return a.direction, metrics.SearchMetric{Episodes: 7}, a.err
}

func TestServerTimeouts(t *testing.T) {
	snap, _, _ := corridor(t)

	t.Run("deadline keeps the partial direction", func(t *testing.T) {
		s := NewServer(slowAgent{direction: game.East, err: context.DeadlineExceeded}, time.Second)

		out, err := s.findMove(context.Background(), snap)

		require.NoError(t, err)
		require.Equal(t, game.East, out.Direction)
		require.Equal(t, 7, out.Episodes)
	})

	t.Run("cancellation is an error", func(t *testing.T) {
		s := NewServer(slowAgent{direction: game.East, err: context.Canceled}, 0)

		out, err := s.findMove(context.Background(), snap)

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, game.Stop, out.Direction)
	})
}
