package game

import "fmt"

// Snapshot is the world content the agent needs for one decision cycle. It is
// also the wire format of the agent server.
type Snapshot struct {
	Floor          []Location `json:"floor" yaml:"floor"`
	BreakableWalls []Location `json:"breakable_walls,omitempty" yaml:"breakable_walls"`
	Food           []Location `json:"food,omitempty" yaml:"food"`
	Soda           []Location `json:"soda,omitempty" yaml:"soda"`
	Enemies        []Location `json:"enemies,omitempty" yaml:"enemies"`
	Exit           Location   `json:"exit" yaml:"exit"`
	Player         Location   `json:"player" yaml:"player"`
	Health         int        `json:"health" yaml:"health"`
}

// Snapshot lets a *Snapshot act as a frozen World.
func (s *Snapshot) Snapshot() (*Snapshot, error) {
	return s.Clone(), nil
}

func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Floor:          append([]Location(nil), s.Floor...),
		BreakableWalls: append([]Location(nil), s.BreakableWalls...),
		Food:           append([]Location(nil), s.Food...),
		Soda:           append([]Location(nil), s.Soda...),
		Enemies:        append([]Location(nil), s.Enemies...),
		Exit:           s.Exit,
		Player:         s.Player,
		Health:         s.Health,
	}
}

// Validate rejects snapshots the search cannot work from. The exit may lie
// off the floor; such levels simply cannot be won.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if len(s.Floor) == 0 {
		return fmt.Errorf("%w: empty floor", ErrInvalidSnapshot)
	}
	floor := NewLocationSet(s.Floor...)
	if !floor.Contains(s.Player) {
		return fmt.Errorf("%w: player %v is not on the floor", ErrInvalidSnapshot, s.Player)
	}
	for _, w := range s.BreakableWalls {
		if w == s.Player {
			return fmt.Errorf("%w: player %v stands on a breakable wall", ErrInvalidSnapshot, s.Player)
		}
	}
	return nil
}
