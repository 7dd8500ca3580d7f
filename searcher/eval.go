package searcher

import (
	"scavenger/game"
	"scavenger/maze"
)

// nearest returns the distance from the player to the closest target it can
// reach. Targets the metric cannot connect to the player are ignored.
func nearest(distances maze.Metric, player game.Location, targets game.LocationSet) (int, bool) {
	best, found := 0, false
	for target := range targets {
		d, err := distances.Distance(player, target)
		if err != nil {
			continue
		}
		if !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}

// progress is the fractional reduction in distance toward a target.
func progress(prev, curr int) float64 {
	if prev == 0 {
		return 0
	}
	return float64(prev-curr) / float64(prev)
}

// evaluate shapes the reward of the non-decisive step prev -> next taken at
// the given tree depth.
func (t *Tree) evaluate(prev, next *game.State, depth int) float64 {
	scale := 1 / float64(depth+1)
	r := t.rewards
	reward := t.threat(prev, next) * scale

	prevData, nextData := prev.Data(), next.Data()
	switch {
	case nextData.Soda.Len() < prevData.Soda.Len():
		return reward + r.SodaBonus*scale
	case nextData.Food.Len() < prevData.Food.Len():
		return reward + r.FoodBonus*scale
	}

	prevFood, hasFood := nearest(t.distances, prev.Player(), prevData.Food)
	prevSoda, hasSoda := nearest(t.distances, prev.Player(), prevData.Soda)
	if !hasFood && !hasSoda {
		return reward + t.exitProgress(prev, next)*scale
	}
	currFood, _ := nearest(t.distances, next.Player(), nextData.Food)
	currSoda, _ := nearest(t.distances, next.Player(), nextData.Soda)
	food := progress(prevFood, currFood)
	soda := progress(prevSoda, currSoda)

	switch {
	case !hasSoda:
		return reward + food*scale
	case !hasFood:
		return reward + soda*scale
	case prevFood < prevSoda:
		return reward + closer(food, soda, r.FallbackShare)*scale
	case prevSoda < prevFood:
		return reward + closer(soda, food, r.FallbackShare)*scale
	case currFood < currSoda:
		return reward + food*scale
	default:
		return reward + soda*scale*r.SodaTieEdge
	}
}

// closer pays the progress toward the closer target, or a share of the
// progress toward the farther one when the closer target did not get nearer.
func closer(near, far, share float64) float64 {
	if near <= 0 && far > 0 {
		return far * share
	}
	return near
}

// threat rewards moving away from an enemy within the threat radius. A
// retreat is worth twice as much as an equal approach costs.
func (t *Tree) threat(prev, next *game.State) float64 {
	enemies := next.Data().Enemies
	if enemies.Len() == 0 {
		return 0
	}
	curr, ok := nearest(t.distances, next.Player(), enemies)
	if !ok || curr == 0 || curr > t.rewards.ThreatRadius {
		return 0
	}
	before, ok := nearest(t.distances, prev.Player(), prev.Data().Enemies)
	if !ok {
		return 0
	}
	term := float64(curr-before) / float64(curr)
	if curr > before {
		term *= 2
	}
	return term
}

// exitProgress shapes the reward toward the exit once every item is gone or
// out of reach. An unreachable exit yields nothing.
func (t *Tree) exitProgress(prev, next *game.State) float64 {
	exit := next.Data().Exit
	before, err := t.distances.Distance(prev.Player(), exit)
	if err != nil {
		return 0
	}
	after, err := t.distances.Distance(next.Player(), exit)
	if err != nil {
		return 0
	}
	return progress(before, after)
}
