package game

import (
	"fmt"
	"strings"
)

// Direction is the token handed to the external mover.
type Direction int

const (
	North Direction = iota
	South
	East
	West
	Stop
)

// Directions lists the moving directions in expansion order.
var Directions = []Direction{North, South, East, West}

var vectors = [...]Location{
	North: {X: 0, Y: 1},
	South: {X: 0, Y: -1},
	East:  {X: 1, Y: 0},
	West:  {X: -1, Y: 0},
	Stop:  {X: 0, Y: 0},
}

var names = [...]string{
	North: "NORTH",
	South: "SOUTH",
	East:  "EAST",
	West:  "WEST",
	Stop:  "STOP",
}

func (d Direction) Vector() Location {
	if d < North || d > Stop {
		return vectors[Stop]
	}
	return vectors[d]
}

func (d Direction) String() string {
	if d < North || d > Stop {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return names[d]
}

func (d Direction) Reverse() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

func ParseDirection(s string) (Direction, error) {
	for d, name := range names {
		if strings.EqualFold(s, name) {
			return Direction(d), nil
		}
	}
	return Stop, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DirectionBetween converts the delta between two locations into a token:
// x-dominant deltas map to EAST/WEST, y-dominant ones to NORTH/SOUTH.
func DirectionBetween(from, to Location) Direction {
	dx, dy := to.X-from.X, to.Y-from.Y
	switch {
	case dx == 0 && dy == 0:
		return Stop
	case abs(dx) >= abs(dy):
		if dx > 0 {
			return East
		}
		return West
	case dy > 0:
		return North
	default:
		return South
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
