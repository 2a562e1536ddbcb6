// Package checkers implements the Chinese Checkers strategy: minimax with alpha-beta pruning, or with
// probability error_chance a simple heuristic move.
package checkers

import (
	"math/rand/v2"
	"slices"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/searchers"
	"github.com/janpfeifer/arcadeai/internal/state"
)

func init() {
	players.Register(Strategy{})
}

// DefaultMaxDepth is used if the parameters don't set max_depth.
const DefaultMaxDepth = 3

// Strategy implements players.Strategy for Chinese Checkers.
type Strategy struct{}

var _ players.Strategy = Strategy{}

// Game implements players.Strategy.
func (Strategy) Game() games.ID { return games.ChineseCheckers }

// LegalMoves implements players.Strategy.
func (Strategy) LegalMoves(s state.GameState) ([]state.Move, error) {
	c, err := players.StateAs[*state.Checkers](s)
	if err != nil {
		return nil, err
	}
	var moves []state.Move
	for _, m := range state.CheckersMoves(c.Array(), c.AISide()) {
		moves = append(moves, m)
	}
	return moves, nil
}

// factors returns the aggressive_factor and defensive_factor parameters.
func factors(params parameters.Params) (aggressive, defensive float64, err error) {
	aggressive, err = parameters.GetParamOr(params, "aggressive_factor", 1.0)
	if err != nil {
		return
	}
	defensive, err = parameters.GetParamOr(params, "defensive_factor", 1.0)
	return
}

// Evaluate implements players.Strategy.
func (Strategy) Evaluate(s state.GameState, params parameters.Params) (float64, error) {
	c, err := players.StateAs[*state.Checkers](s)
	if err != nil {
		return 0, err
	}
	aggressive, defensive, err := factors(params)
	if err != nil {
		return 0, err
	}
	return state.EvaluateCheckers(c.Array(), c.AISide(), aggressive, defensive), nil
}

// ChooseMove implements players.Strategy.
func (Strategy) ChooseMove(s state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error) {
	c, err := players.StateAs[*state.Checkers](s)
	if err != nil {
		return nil, err
	}
	board, me := c.Array(), c.AISide()
	search, err := players.ShouldSearch(params, rng)
	if err != nil {
		return nil, err
	}
	if !search {
		return HeuristicMove(board, me, "heuristic"), nil
	}

	aggressive, defensive, err := factors(params)
	if err != nil {
		return nil, err
	}
	root := NewPosition(board, me, aggressive, defensive)
	move, ok, err := players.Search[state.CheckersMove](root, params, DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return state.NoCheckersMove, nil
	}
	move.Strategy = "minimax"
	return move, nil
}

// Fallback implements players.Strategy: the heuristic move.
func (Strategy) Fallback(s state.GameState) state.Move {
	c, err := players.StateAs[*state.Checkers](s)
	if err != nil {
		return state.NoCheckersMove
	}
	return HeuristicMove(c.Array(), c.AISide(), "fallback")
}

// HeuristicMove returns the first capture, or else the first move towards the goal row, or else the
// first move. It returns state.NoCheckersMove if me has no moves.
func HeuristicMove(board *[64]state.Side, me state.Side, strategy string) state.CheckersMove {
	moves := state.CheckersMoves(board, me)
	if len(moves) == 0 {
		return state.NoCheckersMove
	}
	pick := moves[0]
	if idx := slices.IndexFunc(moves, func(m state.CheckersMove) bool { return len(m.Captures) > 0 }); idx >= 0 {
		pick = moves[idx]
	} else if idx := slices.IndexFunc(moves, func(m state.CheckersMove) bool { return state.CheckersForward(me, m) }); idx >= 0 {
		pick = moves[idx]
	}
	pick.Strategy = strategy
	return pick
}

// Position implements searchers.Position for Chinese Checkers.
type Position struct {
	board                 [64]state.Side
	me, toPlay            state.Side
	aggressive, defensive float64
}

var _ searchers.Position[state.CheckersMove] = (*Position)(nil)

// NewPosition returns the search root for side me, which is to play. aggressive and defensive
// parametrize the evaluation, see state.EvaluateCheckers.
func NewPosition(board *[64]state.Side, me state.Side, aggressive, defensive float64) *Position {
	return &Position{board: *board, me: me, toPlay: me, aggressive: aggressive, defensive: defensive}
}

// Moves implements searchers.Position.
func (p *Position) Moves() []state.CheckersMove {
	return state.CheckersMoves(&p.board, p.toPlay)
}

// Play implements searchers.Position.
func (p *Position) Play(move state.CheckersMove) searchers.Position[state.CheckersMove] {
	next := *p
	next.board = *state.ApplyCheckersMove(&p.board, move)
	next.toPlay = p.toPlay.Opponent()
	return &next
}

// Terminal implements searchers.Position.
func (p *Position) Terminal() searchers.Outcome {
	switch state.CheckersWinner(&p.board) {
	case p.me:
		return searchers.Win
	case p.me.Opponent():
		return searchers.Loss
	}
	return searchers.Ongoing
}

// Evaluate implements searchers.Position.
func (p *Position) Evaluate() float64 {
	return state.EvaluateCheckers(&p.board, p.me, p.aggressive, p.defensive)
}
