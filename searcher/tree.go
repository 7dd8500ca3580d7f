package searcher

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"

	"scavenger/experiments/metrics"
	"scavenger/game"
	"scavenger/maze"
)

// Tree is the search state of one decision cycle. It is not safe for
// concurrent use and is discarded once a direction has been chosen.
type Tree struct {
	distances        maze.Metric
	rng              *rand.Rand
	depthThreshold   int
	playoutThreshold int
	exploration      float64
	rewards          Rewards
	stateKeyed       bool
	metrics          metrics.Collector

	stats    map[statKey]*stats
	expanded map[game.StateHash][]expansion
}

type expansion struct {
	state    *game.State
	children []*game.State
}

// result is what a simulation reports upward: the first state a playout
// stepped into, the reward to back up and the outcome it ended in.
type result struct {
	first   *game.State
	reward  float64
	outcome game.Outcome
}

// Successor summarises the statistics of one child of the root.
type Successor struct {
	Direction  game.Direction
	Location   game.Location
	Visits     int
	Mean       float64
	Cumulative float64
	Outcome    game.Outcome
}

func newTree(m *MCTS, distances maze.Metric, rng *rand.Rand) *Tree {
	return &Tree{
		distances:        distances,
		rng:              rng,
		depthThreshold:   m.depthThreshold,
		playoutThreshold: m.playoutThreshold,
		exploration:      m.exploration,
		rewards:          m.rewards,
		stateKeyed:       m.stateKeyed,
		metrics:          m.metrics,
		stats:            make(map[statKey]*stats),
		expanded:         make(map[game.StateHash][]expansion),
	}
}

// Train runs one simulation from root.
func (t *Tree) Train(root *game.State) error {
	_, err := t.treeSim(root, 0)
	return err
}

func (t *Tree) treeSim(state *game.State, depth int) (result, error) {
	if depth > t.depthThreshold {
		return t.playout(state, depth), nil
	}

	children, ok := t.children(state)
	if !ok {
		t.expand(state)
		r := t.playout(state, depth)
		if r.first != nil {
			t.update(r.first, r.reward, r.outcome)
		}
		t.update(state, r.reward, r.outcome)
		return result{first: state, reward: r.reward, outcome: r.outcome}, nil
	}

	child := t.selectChild(state, children)
	if child == nil || child.IsLethal() || child.IsOver() {
		r := t.playout(state, depth)
		t.update(state, r.reward, r.outcome)
		return result{first: state, reward: r.reward, outcome: r.outcome}, nil
	}

	delta, err := t.distances.Distance(state.Player(), child.Player())
	if err != nil {
		return result{}, fmt.Errorf("failed to advance depth from %v to %v: %w", state.Player(), child.Player(), err)
	}
	r, err := t.treeSim(child, depth+delta)
	if err != nil {
		return result{}, err
	}
	t.update(state, r.reward, r.outcome)
	return result{first: state, reward: r.reward, outcome: r.outcome}, nil
}

// successors generates one child per legal move. Stop is never expanded as it
// leads back to the same cell.
func successors(state *game.State) []*game.State {
	actions := state.LegalActions()
	children := make([]*game.State, 0, len(actions))
	for _, action := range actions {
		if action == game.Stop {
			continue
		}
		children = append(children, state.GenerateSuccessor(action))
	}
	return children
}

func (t *Tree) expand(state *game.State) []*game.State {
	children := successors(state)
	t.expanded[state.Hash()] = append(t.expanded[state.Hash()], expansion{state: state, children: children})
	t.metrics.AddExpansion()
	return children
}

func (t *Tree) children(state *game.State) ([]*game.State, bool) {
	for _, e := range t.expanded[state.Hash()] {
		if e.state.Equal(state) {
			return e.children, true
		}
	}
	return nil, false
}

func (t *Tree) key(state *game.State) statKey {
	if t.stateKeyed {
		return statKey{loc: state.Player(), hash: state.Hash()}
	}
	return statKey{loc: state.Player()}
}

func (t *Tree) lookup(state *game.State) (*stats, bool) {
	s, ok := t.stats[t.key(state)]
	return s, ok
}

func (t *Tree) update(state *game.State, reward float64, outcome game.Outcome) {
	k := t.key(state)
	s, ok := t.stats[k]
	if !ok {
		s = &stats{}
		t.stats[k] = s
	}
	s.update(reward, outcome)
}

// selectChild picks the child with the highest UCT score. It returns nil only
// when there is nothing to choose from.
func (t *Tree) selectChild(parent *game.State, children []*game.State) *game.State {
	if len(children) == 0 {
		return nil
	}
	var np int
	if s, ok := t.lookup(parent); ok {
		np = s.visits
	}
	scores := make([]float64, len(children))
	for i, child := range children {
		var mean float64
		var ni int
		if s, ok := t.lookup(child); ok {
			mean, ni = s.mean, s.visits
		}
		scores[i] = uct(mean, np, ni, t.exploration)
	}
	return children[argmax(scores, t.rng)]
}

// NextDirection commits to the child of root with the best (outcome, mean
// reward). Children without statistics rank as a loss. Without children the
// agent stays put.
func (t *Tree) NextDirection(root *game.State) game.Direction {
	successors := t.Successors(root)
	if len(successors) == 0 {
		return game.Stop
	}
	sort.SliceStable(successors, func(i, j int) bool {
		if successors[i].Outcome != successors[j].Outcome {
			return successors[i].Outcome > successors[j].Outcome
		}
		return successors[i].Mean > successors[j].Mean
	})
	return successors[0].Direction
}

// Successors lists the statistics of every expanded child of root in
// expansion order.
func (t *Tree) Successors(root *game.State) []Successor {
	children, _ := t.children(root)
	out := make([]Successor, 0, len(children))
	for _, child := range children {
		s := Successor{
			Direction:  game.DirectionBetween(root.Player(), child.Player()),
			Location:   child.Player(),
			Mean:       t.rewards.UnseenScore,
			Cumulative: t.rewards.UnseenScore,
			Outcome:    game.Death,
		}
		if st, ok := t.lookup(child); ok {
			s.Visits = st.visits
			s.Mean = st.mean
			s.Cumulative = st.cumulative
			s.Outcome = st.outcome
		}
		out = append(out, s)
	}
	return out
}

// Policy is the visit count of each expanded child of root.
func (t *Tree) Policy(root *game.State) map[game.Direction]float64 {
	policy := make(map[game.Direction]float64)
	for _, s := range t.Successors(root) {
		policy[s.Direction] = float64(s.Visits)
	}
	return policy
}
