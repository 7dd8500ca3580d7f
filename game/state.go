package game

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

const (
	foodDigest = iota
	sodaDigest
	wallDigest
	enemyDigest
)

// StateData is the dynamic content of a level at one point in time. It is
// never modified after construction; successors share the sets they do not
// change.
type StateData struct {
	Floor          LocationSet
	Food           LocationSet
	Soda           LocationSet
	BreakableWalls LocationSet
	Enemies        LocationSet
	Exit           Location
	Health         int

	digest [4]uint64
}

func NewStateData(floor, food, soda, breakableWalls, enemies []Location, exit Location, health int) *StateData {
	d := &StateData{
		Floor:          NewLocationSet(floor...),
		Food:           NewLocationSet(food...),
		Soda:           NewLocationSet(soda...),
		BreakableWalls: NewLocationSet(breakableWalls...),
		Enemies:        NewLocationSet(enemies...),
		Exit:           exit,
		Health:         health,
	}
	d.digest[foodDigest] = digestSet(foodDigest, d.Food)
	d.digest[sodaDigest] = digestSet(sodaDigest, d.Soda)
	d.digest[wallDigest] = digestSet(wallDigest, d.BreakableWalls)
	d.digest[enemyDigest] = digestSet(enemyDigest, d.Enemies)
	return d
}

// Equal compares the dynamic sets by membership. Health and the static floor
// are not part of the comparison.
func (d *StateData) Equal(other *StateData) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil {
		return false
	}
	return d.Food.Equal(other.Food) &&
		d.Soda.Equal(other.Soda) &&
		d.BreakableWalls.Equal(other.BreakableWalls) &&
		d.Enemies.Equal(other.Enemies)
}

// consume returns a copy of d with any food or soda at loc removed.
func (d *StateData) consume(loc Location) *StateData {
	next := *d
	if d.Food.Contains(loc) {
		next.Food = d.Food.Without(loc)
		next.digest[foodDigest] -= digestLocation(foodDigest, loc)
	}
	if d.Soda.Contains(loc) {
		next.Soda = d.Soda.Without(loc)
		next.digest[sodaDigest] -= digestLocation(sodaDigest, loc)
	}
	return &next
}

// State pairs the player location with the level content. States are
// immutable values; the origin world is kept for back reference only.
type State struct {
	player Location
	data   *StateData
	origin World
	hash   StateHash
}

func NewStateFromData(player Location, data *StateData, origin World) *State {
	return &State{
		player: player,
		data:   data,
		origin: origin,
		hash:   hashState(player, data),
	}
}

// NewState builds a root state from the world's current snapshot.
func NewState(world World) (*State, error) {
	snap, err := world.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot world: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	data := NewStateData(snap.Floor, snap.Food, snap.Soda, snap.BreakableWalls, snap.Enemies, snap.Exit, snap.Health)
	return NewStateFromData(snap.Player, data, world), nil
}

func (s *State) Player() Location {
	return s.player
}

func (s *State) Data() *StateData {
	return s.data
}

func (s *State) Origin() World {
	return s.origin
}

func (s *State) Hash() StateHash {
	return s.hash
}

// Equal reports whether both states have the player on the same cell and the
// same food, soda, breakable wall and enemy sets.
func (s *State) Equal(other *State) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.hash == other.hash && s.player == other.player && s.data.Equal(other.data)
}

func (s *State) LegalActions() []Direction {
	return LegalActions(s.player, s.data)
}

func (s *State) GenerateSuccessor(action Direction) *State {
	player, data := ApplyAction(s.player, s.data, action)
	return &State{
		player: player,
		data:   data,
		origin: s.origin,
		hash:   hashState(player, data),
	}
}

// IsOver reports whether the player stands on the exit.
func (s *State) IsOver() bool {
	return s.player == s.data.Exit
}

// IsLethal reports whether the player shares a cell with an enemy.
func (s *State) IsLethal() bool {
	return s.data.Enemies.Contains(s.player)
}

func (s *State) Outcome() Outcome {
	if s.IsLethal() {
		return Death
	}
	if s.IsOver() {
		return Win
	}
	return Ongoing
}

func (s *State) String() string {
	return fmt.Sprintf("player=%v food=%d soda=%d enemies=%d health=%d",
		s.player, s.data.Food.Len(), s.data.Soda.Len(), s.data.Enemies.Len(), s.data.Health)
}

func digestLocation(tag byte, l Location) uint64 {
	var buf [17]byte
	buf[0] = tag
	binary.LittleEndian.PutUint64(buf[1:], uint64(int64(l.X)))
	binary.LittleEndian.PutUint64(buf[9:], uint64(int64(l.Y)))
	return xxh3.Hash(buf[:])
}

// digestSet sums member digests so the result does not depend on order.
func digestSet(tag byte, s LocationSet) uint64 {
	var sum uint64
	for l := range s {
		sum += digestLocation(tag, l)
	}
	return sum
}

func hashState(player Location, d *StateData) StateHash {
	var buf [40]byte
	binary.LittleEndian.PutUint64(buf[0:], digestLocation(0xff, player))
	for i, v := range d.digest {
		binary.LittleEndian.PutUint64(buf[8+i*8:], v)
	}
	return StateHash(xxh3.Hash(buf[:]))
}
