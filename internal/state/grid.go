package state

import (
	"strings"

	"github.com/pkg/errors"
)

// Pos is a cell position in a Grid: X is the column and Y the row.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved by one step in direction d.
func (p Pos) Add(d Direction) Pos {
	dx, dy := d.Delta()
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan distance between a and b.
func Manhattan(a, b Pos) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Direction of an orthogonal step. Grid rows grow downwards.
type Direction uint8

const (
	NoDirection Direction = iota
	Up
	Down
	Left
	Right
)

// Directions in the order moves are enumerated.
var Directions = [4]Direction{Up, Down, Left, Right}

// Delta returns the (dx, dy) of one step in direction d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	}
	return "NONE"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "UP":
		*d = Up
	case "DOWN":
		*d = Down
	case "LEFT":
		*d = Left
	case "RIGHT":
		*d = Right
	case "NONE", "":
		*d = NoDirection
	default:
		return errors.Wrapf(ErrInvalid, "unknown direction %q", text)
	}
	return nil
}

// Grid is a rectangular occupancy grid indexed as grid[y][x]. 0 is an empty cell; the meaning of
// other values depends on the game.
type Grid [][]int

// Width of the grid.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height of the grid.
func (g Grid) Height() int { return len(g) }

// InBounds returns whether p is inside the grid.
func (g Grid) InBounds(p Pos) bool {
	return p.Y >= 0 && p.Y < len(g) && p.X >= 0 && p.X < g.Width()
}

// At returns the value at p. p must be in bounds.
func (g Grid) At(p Pos) int { return g[p.Y][p.X] }

// IsEmpty returns whether p is inside the grid and holds 0.
func (g Grid) IsEmpty(p Pos) bool {
	return g.InBounds(p) && g[p.Y][p.X] == 0
}

// Validate returns an error wrapping ErrInvalid if the grid is empty or ragged.
func (g Grid) Validate() error {
	if len(g) == 0 || len(g[0]) == 0 {
		return invalidf("empty grid")
	}
	width := len(g[0])
	for y, row := range g {
		if len(row) != width {
			return invalidf("ragged grid: row %d has %d cells, row 0 has %d", y, len(row), width)
		}
	}
	return nil
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	c := make(Grid, len(g))
	for y, row := range g {
		c[y] = append([]int(nil), row...)
	}
	return c
}

// FloodFillSpace counts the empty cells reachable from start through orthogonal steps over empty
// cells. The start cell itself is not counted. The count stops at limit, if limit > 0.
//
// It is monotonic: occupying more cells never increases the count from a fixed start.
func FloodFillSpace(start Pos, grid Grid, limit int) int {
	if !grid.InBounds(start) {
		return 0
	}
	width := grid.Width()
	visited := make([]bool, width*grid.Height())
	visited[start.Y*width+start.X] = true
	queue := []Pos{start}
	space := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			next := current.Add(d)
			if !grid.IsEmpty(next) {
				continue
			}
			idx := next.Y*width + next.X
			if visited[idx] {
				continue
			}
			visited[idx] = true
			space++
			if limit > 0 && space >= limit {
				return space
			}
			queue = append(queue, next)
		}
	}
	return space
}
