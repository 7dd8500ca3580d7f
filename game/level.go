package game

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Level tiles. Every tile except the outer wall sits on a floor cell.
const (
	TileWall          = '#'
	TileFloor         = '.'
	TileBreakableWall = 'B'
	TileFood          = 'F'
	TileSoda          = 'S'
	TileEnemy         = 'E'
	TileExit          = 'X'
	TilePlayer        = 'P'
)

const DefaultHealth = 100

// ParseLevel reads an ASCII level. The top row has the highest y so that
// NORTH points up on screen. Blank lines and lines starting with ';' are
// ignored.
func ParseLevel(name string, text string) (*Snapshot, error) {
	var rows []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read level %s: %w", name, err)
	}

	snap := &Snapshot{Exit: Location{X: -1, Y: -1}, Health: DefaultHealth}
	players, exits := 0, 0
	for i, row := range rows {
		y := len(rows) - 1 - i
		for x, tile := range row {
			loc := Location{X: x, Y: y}
			if tile != TileWall {
				snap.Floor = append(snap.Floor, loc)
			}
			switch tile {
			case TileWall, TileFloor:
			case TileBreakableWall:
				snap.BreakableWalls = append(snap.BreakableWalls, loc)
			case TileFood:
				snap.Food = append(snap.Food, loc)
			case TileSoda:
				snap.Soda = append(snap.Soda, loc)
			case TileEnemy:
				snap.Enemies = append(snap.Enemies, loc)
			case TileExit:
				snap.Exit = loc
				exits++
			case TilePlayer:
				snap.Player = loc
				players++
			default:
				return nil, fmt.Errorf("level %s: unknown tile %q at %v", name, tile, loc)
			}
		}
	}
	if players != 1 {
		return nil, fmt.Errorf("level %s: expected one player tile, found %d", name, players)
	}
	if exits > 1 {
		return nil, fmt.Errorf("level %s: expected at most one exit tile, found %d", name, exits)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}
	return snap, nil
}

func LoadLevel(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}
	return ParseLevel(path, string(raw))
}
