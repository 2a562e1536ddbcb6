// Package tictactoe implements the Tic-Tac-Toe strategy: minimax with alpha-beta pruning, or with
// probability error_chance a random move weighted by position_weights.
package tictactoe

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/searchers"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/pkg/errors"
)

func init() {
	players.Register(Strategy{})
}

// DefaultMaxDepth is used if the parameters don't set max_depth.
const DefaultMaxDepth = 4

// Strategy implements players.Strategy for Tic-Tac-Toe.
type Strategy struct{}

var _ players.Strategy = Strategy{}

// Game implements players.Strategy.
func (Strategy) Game() games.ID { return games.TicTacToe }

// LegalMoves implements players.Strategy: the empty cells, in index order.
func (Strategy) LegalMoves(s state.GameState) ([]state.Move, error) {
	t, err := players.StateAs[*state.TicTacToe](s)
	if err != nil {
		return nil, err
	}
	var moves []state.Move
	for _, cell := range state.TicTacToeEmptyCells(t.Array()) {
		moves = append(moves, state.TicTacToeMove{Position: cell})
	}
	return moves, nil
}

// Evaluate implements players.Strategy.
func (Strategy) Evaluate(s state.GameState, _ parameters.Params) (float64, error) {
	t, err := players.StateAs[*state.TicTacToe](s)
	if err != nil {
		return 0, err
	}
	return state.EvaluateTicTacToe(t.Array(), t.AISide()), nil
}

// ChooseMove implements players.Strategy.
func (Strategy) ChooseMove(s state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error) {
	t, err := players.StateAs[*state.TicTacToe](s)
	if err != nil {
		return nil, err
	}
	board := t.Array()
	if len(state.TicTacToeEmptyCells(board)) == 0 {
		return state.NoTicTacToeMove, nil
	}
	search, err := players.ShouldSearch(params, rng)
	if err != nil {
		return nil, err
	}
	if search {
		cell, ok, err := players.Search[int](NewPosition(board, t.AISide()), params, DefaultMaxDepth)
		if err != nil {
			return nil, err
		}
		if !ok {
			return state.NoTicTacToeMove, nil
		}
		return state.TicTacToeMove{Position: cell, Strategy: "minimax"}, nil
	}

	weights, err := parameters.GetSliceOr(params, "position_weights", nil)
	if err != nil {
		return nil, err
	}
	cell, err := WeightedRandomCell(board, weights, rng)
	if err != nil {
		return nil, err
	}
	return state.TicTacToeMove{Position: cell, Strategy: "heuristic"}, nil
}

// Fallback implements players.Strategy: the first empty cell.
func (Strategy) Fallback(s state.GameState) state.Move {
	t, err := players.StateAs[*state.TicTacToe](s)
	if err != nil {
		return state.NoTicTacToeMove
	}
	empty := state.TicTacToeEmptyCells(t.Array())
	if len(empty) == 0 {
		return state.NoTicTacToeMove
	}
	return state.TicTacToeMove{Position: empty[0], Strategy: "fallback"}
}

// WeightedRandomCell picks an empty cell with probability proportional to its weight.
//
// Non-positive weights count as 0, and if all empty cells weigh 0 the choice is uniform. A nil weights
// slice is uniform too. It returns -1 if the board is full.
func WeightedRandomCell(board *[9]state.Side, weights []float64, rng *rand.Rand) (int, error) {
	if weights != nil && len(weights) != len(board) {
		return -1, errors.Wrapf(parameters.ErrInvalid, "position_weights must have %d values, got %d", len(board), len(weights))
	}
	type candidate struct {
		cell   int
		weight float64
	}
	var candidates []candidate
	var total float64
	for _, cell := range state.TicTacToeEmptyCells(board) {
		var w float64
		if weights != nil {
			w = max(weights[cell], 0)
		}
		candidates = append(candidates, candidate{cell, w})
		total += w
	}
	if len(candidates) == 0 {
		return -1, nil
	}
	if total <= 0 {
		return candidates[rng.IntN(len(candidates))].cell, nil
	}

	// Heavier cells first.
	slices.SortStableFunc(candidates, func(a, b candidate) int { return cmp.Compare(b.weight, a.weight) })
	draw := rng.Float64() * total
	var cumulative float64
	for _, c := range candidates {
		cumulative += c.weight
		if draw < cumulative {
			return c.cell, nil
		}
	}
	return candidates[0].cell, nil
}

// Position implements searchers.Position for Tic-Tac-Toe. Moves are cell indices.
type Position struct {
	board      [9]state.Side
	me, toPlay state.Side
}

var _ searchers.Position[int] = (*Position)(nil)

// NewPosition returns the search root for side me, which is to play.
func NewPosition(board *[9]state.Side, me state.Side) *Position {
	return &Position{board: *board, me: me, toPlay: me}
}

// Moves implements searchers.Position.
func (p *Position) Moves() []int {
	return state.TicTacToeEmptyCells(&p.board)
}

// Play implements searchers.Position.
func (p *Position) Play(cell int) searchers.Position[int] {
	next := *p
	next.board[cell] = p.toPlay
	next.toPlay = p.toPlay.Opponent()
	return &next
}

// Terminal implements searchers.Position.
func (p *Position) Terminal() searchers.Outcome {
	switch state.TicTacToeWinner(&p.board) {
	case p.me:
		return searchers.Win
	case p.me.Opponent():
		return searchers.Loss
	}
	if state.TicTacToeFull(&p.board) {
		return searchers.Draw
	}
	return searchers.Ongoing
}

// Evaluate implements searchers.Position.
func (p *Position) Evaluate() float64 {
	return state.EvaluateTicTacToe(&p.board, p.me)
}
