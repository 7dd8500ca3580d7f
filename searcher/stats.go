package searcher

import "scavenger/game"

// statKey identifies a statistics bucket. The hash is zero when statistics
// are shared by every state with the player on the same cell.
type statKey struct {
	loc  game.Location
	hash game.StateHash
}

type stats struct {
	visits     int
	cumulative float64
	mean       float64
	outcome    game.Outcome // Latest observed, not accumulated
}

func (s *stats) update(reward float64, outcome game.Outcome) {
	s.visits++
	s.cumulative += reward
	s.mean += (reward - s.mean) / float64(s.visits)
	s.outcome = outcome
}
