package searcher

import (
	"sort"

	"scavenger/game"
)

// playout follows the greedy playout policy for up to playoutThreshold steps
// or until a decisive state. The reward is the mean over the steps taken and
// the outcome is that of the last state reached.
func (t *Tree) playout(state *game.State, depth int) result {
	current := state
	var first *game.State
	var reward float64
	steps := 0
	for steps < t.playoutThreshold {
		next, r := t.playoutSim(current, depth+steps)
		if next == nil {
			break
		}
		if steps == 0 {
			first = next
		}
		current = next
		reward += r
		steps++
		if current.IsOver() || current.IsLethal() {
			break
		}
	}
	if steps > 0 {
		reward /= float64(steps)
	}
	outcome := current.Outcome()
	if outcome != game.Ongoing {
		t.metrics.AddFullPlayout()
	}
	return result{first: first, reward: reward, outcome: outcome}
}

type scored struct {
	state   *game.State
	reward  float64
	outcome game.Outcome
}

// playoutSim takes one greedy step: a win beats anything else, a death loses
// to anything else and the shaped reward orders the rest. A state with no
// children picks uniformly among its legal actions, which leaves only Stop.
func (t *Tree) playoutSim(state *game.State, depth int) (*game.State, float64) {
	children, ok := t.children(state)
	if !ok {
		children = successors(state)
	}
	if len(children) == 0 {
		actions := state.LegalActions()
		if len(actions) == 0 {
			return nil, 0
		}
		return state.GenerateSuccessor(actions[t.rng.Intn(len(actions))]), 0
	}

	scale := 1 / float64(depth+1)
	candidates := make([]scored, 0, len(children))
	for _, child := range children {
		switch {
		case child.IsLethal():
			candidates = append(candidates, scored{child, -t.rewards.DeathPenalty * scale, game.Death})
		case child.IsOver():
			candidates = append(candidates, scored{child, t.rewards.WinBonus * scale, game.Win})
		default:
			candidates = append(candidates, scored{child, t.evaluate(state, child, depth), game.Ongoing})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].outcome != candidates[j].outcome {
			return candidates[i].outcome > candidates[j].outcome
		}
		return candidates[i].reward > candidates[j].reward
	})
	return candidates[0].state, candidates[0].reward
}
