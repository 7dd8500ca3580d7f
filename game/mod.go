package game

import "errors"

var (
	ErrInvalidSnapshot = errors.New("invalid world snapshot")
	ErrIllegalMove     = errors.New("illegal move")
)

// World is the live game world as seen by the agent. Implementations hand out
// a fresh snapshot per decision cycle; the agent never mutates the world.
type World interface {
	Snapshot() (*Snapshot, error)
}

// StateHash identifies a State by player location and dynamic content.
type StateHash uint64

// Outcome of a state from the agent's perspective.
type Outcome int

const (
	Death   Outcome = -1
	Ongoing Outcome = 0
	Win     Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case Death:
		return "death"
	case Win:
		return "win"
	default:
		return "ongoing"
	}
}
