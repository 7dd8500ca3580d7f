package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
	"scavenger/searcher/agent"
)

// RemoteAgent asks an agent server for each move. The snapshot sent is read
// back from the world the state was built from.
type RemoteAgent struct {
	URL    string
	Client *http.Client
}

func NewRemoteAgent(url string) *RemoteAgent {
	return &RemoteAgent{URL: strings.TrimRight(url, "/"), Client: http.DefaultClient}
}

func (a *RemoteAgent) FindMove(ctx context.Context, state *game.State, _ maze.Metric) (game.Direction, metrics.SearchMetric, error) {
	if state.Origin() == nil {
		return game.Stop, metrics.SearchMetric{}, fmt.Errorf("%w: state has no world", game.ErrInvalidSnapshot)
	}
	snap, err := state.Origin().Snapshot()
	if err != nil {
		return game.Stop, metrics.SearchMetric{}, fmt.Errorf("failed to snapshot world: %w", err)
	}

	bodyBytes, err := json.Marshal(agent.FindMoveRequest{Snapshot: snap})
	if err != nil {
		return game.Stop, metrics.SearchMetric{}, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL+"/findmove", bytes.NewReader(bodyBytes))
	if err != nil {
		return game.Stop, metrics.SearchMetric{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return game.Stop, metrics.SearchMetric{}, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return game.Stop, metrics.SearchMetric{}, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(out)))
	}

	var out agent.FindMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return game.Stop, metrics.SearchMetric{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Direction, metrics.SearchMetric{Episodes: out.Episodes}, nil
}
