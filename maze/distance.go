package maze

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"scavenger/game"
)

var ErrNotFound = errors.New("distance not found")

// Metric answers shortest-path queries between two cells.
type Metric interface {
	Distance(a, b game.Location) (int, error)
}

// Index holds the all-pairs shortest path lengths of a static level. Breakable
// walls are treated as impassable for the lifetime of the index.
type Index struct {
	cells     map[game.Location]int
	locations []game.Location
	dist      []int32
}

// Build runs a unit-weight uniform-cost search from every traversable floor
// cell. Unreachable pairs are recorded as absent.
func Build(floor, breakableWalls []game.Location) *Index {
	walls := game.NewLocationSet(breakableWalls...)
	idx := &Index{cells: make(map[game.Location]int, len(floor))}
	for _, l := range floor {
		if walls.Contains(l) {
			continue
		}
		if _, ok := idx.cells[l]; ok {
			continue
		}
		idx.cells[l] = len(idx.locations)
		idx.locations = append(idx.locations, l)
	}

	n := len(idx.locations)
	idx.dist = make([]int32, n*n)
	for i := range idx.dist {
		idx.dist[i] = -1
	}
	for src := range idx.locations {
		idx.search(src)
	}
	return idx
}

func (idx *Index) search(src int) {
	n := len(idx.locations)
	row := idx.dist[src*n : (src+1)*n]
	row[src] = 0
	frontier := &queue{{cell: src, cost: 0}}
	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(item)
		if current.cost > row[current.cell] {
			continue
		}
		from := idx.locations[current.cell]
		for _, d := range game.Directions {
			next, ok := idx.cells[from.Add(d)]
			if !ok {
				continue
			}
			cost := current.cost + 1
			if row[next] == -1 || cost < row[next] {
				row[next] = cost
				heap.Push(frontier, item{cell: next, cost: cost})
			}
		}
	}
}

// Distance returns the shortest path length between a and b. It fails with
// ErrNotFound when either cell is not indexed or the pair is disconnected.
func (idx *Index) Distance(a, b game.Location) (int, error) {
	i, ok := idx.cells[a]
	if !ok {
		return 0, fmt.Errorf("%w: %v is not a traversable cell", ErrNotFound, a)
	}
	j, ok := idx.cells[b]
	if !ok {
		return 0, fmt.Errorf("%w: %v is not a traversable cell", ErrNotFound, b)
	}
	d := idx.dist[i*len(idx.locations)+j]
	if d < 0 {
		return 0, fmt.Errorf("%w: %v and %v are disconnected", ErrNotFound, a, b)
	}
	return int(d), nil
}

func (idx *Index) Contains(l game.Location) bool {
	_, ok := idx.cells[l]
	return ok
}

// Len is the number of indexed cells.
func (idx *Index) Len() int {
	return len(idx.locations)
}

func Manhattan(a, b game.Location) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// ManhattanMetric ignores walls entirely. It never fails.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b game.Location) (int, error) {
	return Manhattan(a, b), nil
}

// Fingerprint identifies a static level layout regardless of cell order.
func Fingerprint(floor, breakableWalls []game.Location) uint64 {
	var floorSum, wallSum uint64
	for l := range game.NewLocationSet(floor...) {
		floorSum += digest(0, l)
	}
	for l := range game.NewLocationSet(breakableWalls...) {
		wallSum += digest(1, l)
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], floorSum)
	binary.LittleEndian.PutUint64(buf[8:], wallSum)
	return xxh3.Hash(buf[:])
}

func digest(tag byte, l game.Location) uint64 {
	var buf [17]byte
	buf[0] = tag
	binary.LittleEndian.PutUint64(buf[1:], uint64(int64(l.X)))
	binary.LittleEndian.PutUint64(buf[9:], uint64(int64(l.Y)))
	return xxh3.Hash(buf[:])
}

type item struct {
	cell int
	cost int32
}

type queue []item

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x interface{}) { *q = append(*q, x.(item)) }
func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
