package game

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// Location is a cell coordinate on the level grid. North is +y.
type Location struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (l Location) Add(d Direction) Location {
	v := d.Vector()
	return Location{X: l.X + v.X, Y: l.Y + v.Y}
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.X, l.Y)
}

// LocationSet is an unordered set of locations. Sets reachable from a State
// are shared between states and must be treated as read-only.
type LocationSet map[Location]struct{}

func NewLocationSet(locs ...Location) LocationSet {
	s := make(LocationSet, len(locs))
	for _, l := range locs {
		s[l] = struct{}{}
	}
	return s
}

func (s LocationSet) Contains(l Location) bool {
	_, ok := s[l]
	return ok
}

func (s LocationSet) Len() int {
	return len(s)
}

// Without returns a copy of s with l removed, or s itself if l is absent.
func (s LocationSet) Without(l Location) LocationSet {
	if !s.Contains(l) {
		return s
	}
	c := maps.Clone(s)
	delete(c, l)
	return c
}

// Equal reports whether both sets hold the same members.
func (s LocationSet) Equal(other LocationSet) bool {
	if len(s) != len(other) {
		return false
	}
	for l := range s {
		if !other.Contains(l) {
			return false
		}
	}
	return true
}

// Sorted returns the members ordered by y then x.
func (s LocationSet) Sorted() []Location {
	locs := make([]Location, 0, len(s))
	for l := range s {
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Y != locs[j].Y {
			return locs[i].Y < locs[j].Y
		}
		return locs[i].X < locs[j].X
	})
	return locs
}
