// Package tron implements the Tron strategy: run away from a close opponent, otherwise move towards
// the largest open area.
package tron

import (
	"math/rand/v2"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/state"
)

func init() {
	players.Register(Strategy{})
}

// Default values of the parameters.
const (
	DefaultEvadeDistance = 5
	DefaultSpaceDepth    = 200
)

// Strategy implements players.Strategy for Tron.
type Strategy struct{}

var _ players.Strategy = Strategy{}

// Game implements players.Strategy.
func (Strategy) Game() games.ID { return games.Tron }

// LegalMoves implements players.Strategy: the steps into empty cells, in the order UP, DOWN, LEFT, RIGHT.
func (Strategy) LegalMoves(s state.GameState) ([]state.Move, error) {
	t, err := players.StateAs[*state.Tron](s)
	if err != nil {
		return nil, err
	}
	return generics.SliceMap(t.LegalSteps(), func(step state.TronStep) state.Move {
		return state.TronMove{Direction: step.Direction}
	}), nil
}

// Evaluate implements players.Strategy: the open area reachable by the AI minus the one reachable by the
// opponent, both capped at space_calculation_depth.
func (Strategy) Evaluate(s state.GameState, params parameters.Params) (float64, error) {
	t, err := players.StateAs[*state.Tron](s)
	if err != nil {
		return 0, err
	}
	depth, err := parameters.GetParamOr(params, "space_calculation_depth", DefaultSpaceDepth)
	if err != nil {
		return 0, err
	}
	mine := state.FloodFillSpace(t.AI, t.Grid, depth)
	theirs := state.FloodFillSpace(t.Opponent, t.Grid, depth)
	return float64(mine - theirs), nil
}

// ChooseMove implements players.Strategy.
func (Strategy) ChooseMove(s state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error) {
	t, err := players.StateAs[*state.Tron](s)
	if err != nil {
		return nil, err
	}
	randomness, err := parameters.GetParamOr(params, "randomness", 0.0)
	if err != nil {
		return nil, err
	}
	evadeDistance, err := parameters.GetParamOr(params, "evade_distance", DefaultEvadeDistance)
	if err != nil {
		return nil, err
	}
	depth, err := parameters.GetParamOr(params, "space_calculation_depth", DefaultSpaceDepth)
	if err != nil {
		return nil, err
	}

	steps := t.LegalSteps()
	if len(steps) == 0 {
		return state.TronForcedLoss, nil
	}
	if rng.Float64() < randomness {
		return state.TronMove{Direction: steps[rng.IntN(len(steps))].Direction, Strategy: "random"}, nil
	}
	if state.Manhattan(t.AI, t.Opponent) < evadeDistance {
		distances := generics.SliceMap(steps, func(step state.TronStep) int { return state.Manhattan(step.Pos, t.Opponent) })
		return state.TronMove{Direction: steps[generics.ArgMax(distances)].Direction, Strategy: "evade"}, nil
	}
	spaces := generics.SliceMap(steps, func(step state.TronStep) int { return state.FloodFillSpace(step.Pos, t.Grid, depth) })
	return state.TronMove{Direction: steps[generics.ArgMax(spaces)].Direction, Strategy: "pathfinding"}, nil
}

// Fallback implements players.Strategy: the first legal step.
func (Strategy) Fallback(s state.GameState) state.Move {
	t, err := players.StateAs[*state.Tron](s)
	if err != nil {
		return state.TronForcedLoss
	}
	steps := t.LegalSteps()
	if len(steps) == 0 {
		return state.TronForcedLoss
	}
	return state.TronMove{Direction: steps[0].Direction, Strategy: "fallback"}
}
