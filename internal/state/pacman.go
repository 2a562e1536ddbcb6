package state

import (
	"fmt"
	"strings"

	"github.com/janpfeifer/arcadeai/internal/games"
)

// Pac-Man grid cell values.
const (
	PacManEmpty       = 0
	PacManWall        = 1
	PacManDot         = 2
	PacManPowerPellet = 3
)

// GhostMode is the behaviour mode of a ghost.
type GhostMode string

const (
	Chase      GhostMode = "chase"
	Scatter    GhostMode = "scatter"
	Frightened GhostMode = "frightened"
)

// Ghost is one of the pursuers controlled by the AI.
type Ghost struct {
	Pos
	Mode  GhostMode `json:"mode"`
	Color string    `json:"color,omitempty"`
}

// PacMan state: the maze, the prey and the ghosts.
type PacMan struct {
	// Grid is indexed as grid[y][x]: 1 are walls, everything else is walkable.
	Grid              Grid    `json:"grid"`
	PacMan            Pos     `json:"pacman"`
	Ghosts            []Ghost `json:"ghosts"`
	PowerPelletActive bool    `json:"power_pellet_active"`
}

var _ GameState = (*PacMan)(nil)

// Game implements GameState.
func (p *PacMan) Game() games.ID { return games.PacMan }

// Validate implements GameState.
func (p *PacMan) Validate() error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	if !p.Grid.InBounds(p.PacMan) {
		return invalidf("pacman position %+v outside of %dx%d grid", p.PacMan, p.Grid.Width(), p.Grid.Height())
	}
	for ii, g := range p.Ghosts {
		if !p.Grid.InBounds(g.Pos) {
			return invalidf("ghost #%d position %+v outside of %dx%d grid", ii, g.Pos, p.Grid.Width(), p.Grid.Height())
		}
		switch g.Mode {
		case Chase, Scatter, Frightened, "":
		default:
			return invalidf("ghost #%d has unknown mode %q", ii, g.Mode)
		}
	}
	return nil
}

// Walkable returns whether p is inside the maze and not a wall.
func (p *PacMan) Walkable(pos Pos) bool {
	return p.Grid.InBounds(pos) && p.Grid.At(pos) != PacManWall
}

// GhostMove is the step of one ghost.
type GhostMove struct {
	Pos
	Direction Direction `json:"direction"`
}

// GhostMoves holds one move per ghost, in the order of PacMan.Ghosts.
type GhostMoves struct {
	Moves    []GhostMove `json:"ghost_moves"`
	Strategy string      `json:"strategy"`
}

var _ Move = GhostMoves{}

func (m GhostMoves) Game() games.ID { return games.PacMan }

// IsNone returns true if no ghost moves.
func (m GhostMoves) IsNone() bool {
	for _, g := range m.Moves {
		if g.Direction != NoDirection {
			return false
		}
	}
	return true
}

func (m GhostMoves) String() string {
	parts := make([]string, len(m.Moves))
	for ii, g := range m.Moves {
		parts[ii] = g.Direction.String()
	}
	return fmt.Sprintf("pacman: ghosts [%s] (%s)", strings.Join(parts, " "), m.Strategy)
}
