// Package pacman implements the Pac-Man ghosts strategy: each ghost independently chases Pac-Man, or
// flees from it while frightened.
package pacman

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

// FleeDistance is how far from Pac-Man a frightened ghost aims, along the dominant axis of separation.
const FleeDistance = 5

// Strategy implements players.Strategy for the Pac-Man ghosts.
type Strategy struct{}

var _ players.Strategy = Strategy{}

// Game implements players.Strategy.
func (Strategy) Game() games.ID { return games.PacMan }

// LegalMoves implements players.Strategy. Ghosts move simultaneously, and the joint moves are not
// enumerated, so it returns nil.
func (Strategy) LegalMoves(s state.GameState) ([]state.Move, error) {
	_, err := players.StateAs[*state.PacMan](s)
	return nil, err
}

// Evaluate implements players.Strategy: minus the distance from the closest non-frightened ghost to
// Pac-Man, or 0 if there is none.
func (Strategy) Evaluate(s state.GameState, _ parameters.Params) (float64, error) {
	p, err := players.StateAs[*state.PacMan](s)
	if err != nil {
		return 0, err
	}
	closest := -1
	for _, g := range p.Ghosts {
		if g.Mode == state.Frightened {
			continue
		}
		if d := state.Manhattan(g.Pos, p.PacMan); closest < 0 || d < closest {
			closest = d
		}
	}
	if closest < 0 {
		return 0, nil
	}
	return -float64(closest), nil
}

// Target returns the cell the ghost is heading to.
func Target(g state.Ghost, pacman state.Pos) state.Pos {
	if g.Mode != state.Frightened {
		return pacman
	}
	dx, dy := g.X-pacman.X, g.Y-pacman.Y
	if generics.Abs(dx) > generics.Abs(dy) {
		return state.Pos{X: g.X + sign(dx)*FleeDistance, Y: pacman.Y}
	}
	return state.Pos{X: pacman.X, Y: g.Y + sign(dy)*FleeDistance}
}

// sign returns 1 for positive values and -1 otherwise.
func sign(v int) int {
	if v > 0 {
		return 1
	}
	return -1
}

// ChooseMove implements players.Strategy.
func (Strategy) ChooseMove(s state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error) {
	p, err := players.StateAs[*state.PacMan](s)
	if err != nil {
		return nil, err
	}
	randomMovement, err := parameters.GetParamOr(params, "random_movement", 0.0)
	if err != nil {
		return nil, err
	}
	if len(p.Ghosts) == 0 {
		return state.GhostMoves{Moves: []state.GhostMove{}, Strategy: "simple"}, nil
	}

	moves := make([]state.GhostMove, 0, len(p.Ghosts))
	for _, g := range p.Ghosts {
		var options []state.GhostMove
		for _, d := range state.Directions {
			if next := g.Pos.Add(d); p.Walkable(next) {
				options = append(options, state.GhostMove{Pos: next, Direction: d})
			}
		}
		switch {
		case len(options) == 0:
			moves = append(moves, state.GhostMove{Pos: g.Pos, Direction: state.NoDirection})
		case rng.Float64() < randomMovement:
			moves = append(moves, options[rng.IntN(len(options))])
		default:
			target := Target(g, p.PacMan)
			closeness := generics.SliceMap(options, func(m state.GhostMove) int { return -state.Manhattan(m.Pos, target) })
			moves = append(moves, options[generics.ArgMax(closeness)])
		}
	}
	return state.GhostMoves{Moves: moves, Strategy: "multi_agent"}, nil
}

// Fallback implements players.Strategy: every ghost stays put.
func (Strategy) Fallback(s state.GameState) state.Move {
	p, err := players.StateAs[*state.PacMan](s)
	if err != nil {
		return state.GhostMoves{Moves: []state.GhostMove{}, Strategy: "fallback"}
	}
	return state.GhostMoves{
		Moves: generics.SliceMap(p.Ghosts, func(g state.Ghost) state.GhostMove {
			return state.GhostMove{Pos: g.Pos, Direction: state.NoDirection}
		}),
		Strategy: "fallback",
	}
}
