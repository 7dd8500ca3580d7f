package game

import "fmt"

// LegalActions returns the directions whose destination is a floor cell free
// of breakable walls, followed by Stop which is always legal.
func LegalActions(pos Location, data *StateData) []Direction {
	actions := make([]Direction, 0, len(Directions)+1)
	for _, d := range Directions {
		next := pos.Add(d)
		if data.Floor.Contains(next) && !data.BreakableWalls.Contains(next) {
			actions = append(actions, d)
		}
	}
	return append(actions, Stop)
}

// CheckAction fails with ErrIllegalMove when action is not legal at pos.
func CheckAction(pos Location, data *StateData, action Direction) error {
	for _, legal := range LegalActions(pos, data) {
		if legal == action {
			return nil
		}
	}
	return fmt.Errorf("%w: %v from %v", ErrIllegalMove, action, pos)
}

// ApplyAction moves the player, removes any food or soda at the destination
// and charges one health point. The input data is left untouched.
func ApplyAction(pos Location, data *StateData, action Direction) (Location, *StateData) {
	next := pos.Add(action)
	nextData := data.consume(next)
	nextData.Health = data.Health - 1
	return next, nextData
}
