package state

import (
	"fmt"

	"github.com/janpfeifer/arcadeai/internal/games"
)

// Tron state: the occupancy grid (0 empty, anything else is a trail) and the heads of both
// light-cycles.
type Tron struct {
	Grid     Grid `json:"grid"`
	AI       Pos  `json:"ai_position"`
	Opponent Pos  `json:"player_position"`
}

var _ GameState = (*Tron)(nil)

// Game implements GameState.
func (t *Tron) Game() games.ID { return games.Tron }

// Validate implements GameState.
func (t *Tron) Validate() error {
	if err := t.Grid.Validate(); err != nil {
		return err
	}
	if !t.Grid.InBounds(t.AI) {
		return invalidf("tron ai position %+v outside of %dx%d grid", t.AI, t.Grid.Width(), t.Grid.Height())
	}
	if !t.Grid.InBounds(t.Opponent) {
		return invalidf("tron opponent position %+v outside of %dx%d grid", t.Opponent, t.Grid.Width(), t.Grid.Height())
	}
	return nil
}

// TronStep is a legal move of the AI and the cell it leads to.
type TronStep struct {
	Direction Direction
	Pos       Pos
}

// LegalSteps returns the moves of the AI into empty cells, in the order of Directions.
func (t *Tron) LegalSteps() []TronStep {
	steps := make([]TronStep, 0, len(Directions))
	for _, d := range Directions {
		next := t.AI.Add(d)
		if t.Grid.IsEmpty(next) {
			steps = append(steps, TronStep{Direction: d, Pos: next})
		}
	}
	return steps
}

// TronMove is the direction chosen by the AI.
type TronMove struct {
	Direction Direction `json:"direction"`

	// Strategy used: "evade", "pathfinding", "random" or "forced_loss".
	Strategy string `json:"strategy"`
}

var _ Move = TronMove{}

// TronForcedLoss is the sentinel returned when every neighbour cell is blocked.
var TronForcedLoss = TronMove{Direction: NoDirection, Strategy: "forced_loss"}

func (m TronMove) Game() games.ID { return games.Tron }
func (m TronMove) IsNone() bool   { return m.Direction == NoDirection }
func (m TronMove) String() string { return fmt.Sprintf("tron: %s (%s)", m.Direction, m.Strategy) }
