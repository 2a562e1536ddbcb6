package tictactoe_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/players/tictactoe"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/janpfeifer/arcadeai/internal/state/statetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expertParams(t *testing.T) parameters.Params {
	params, err := parameters.Default(games.Key{Game: games.TicTacToe, Difficulty: games.Expert})
	require.NoError(t, err)
	return params
}

func choose(t *testing.T, layout, player string, params parameters.Params, rng *rand.Rand) state.TicTacToeMove {
	s := &state.TicTacToe{Board: statetest.TicTacToeBoard(layout), Player: player}
	require.NoError(t, s.Validate())
	move, err := tictactoe.Strategy{}.ChooseMove(s, params, rng)
	require.NoError(t, err)
	return move.(state.TicTacToeMove)
}

// exploreAll plays every possible opponent line against the strategy, and fails if the AI ever loses.
func exploreAll(t *testing.T, board [9]state.Side, ai state.Side, aiTurn bool, params parameters.Params, rng *rand.Rand) (games int) {
	if winner := state.TicTacToeWinner(&board); winner != state.None || state.TicTacToeFull(&board) {
		if winner == ai.Opponent() {
			t.Fatalf("AI (%s) lost:\n%s", ai, state.TicTacToeString(&board))
		}
		return 1
	}
	if aiTurn {
		player := "O"
		if ai == state.X {
			player = "X"
		}
		move, err := tictactoe.Strategy{}.ChooseMove(&state.TicTacToe{Board: board[:], Player: player}, params, rng)
		require.NoError(t, err)
		cell := move.(state.TicTacToeMove).Position
		require.Equal(t, state.None, board[cell])
		board[cell] = ai
		return exploreAll(t, board, ai, false, params, rng)
	}
	for _, cell := range state.TicTacToeEmptyCells(&board) {
		next := board
		next[cell] = ai.Opponent()
		games += exploreAll(t, next, ai, true, params, rng)
	}
	return games
}

func TestUnbeatable(t *testing.T) {
	params := expertParams(t)
	rng := rand.New(rand.NewPCG(1, 2))
	var empty [9]state.Side

	// Opponent plays first.
	count := exploreAll(t, empty, state.O, false, params, rng)
	assert.Greater(t, count, 0)

	// AI plays first.
	count = exploreAll(t, empty, state.X, true, params, rng)
	assert.Greater(t, count, 0)
}

func TestWinsAndBlocks(t *testing.T) {
	params := expertParams(t)
	rng := rand.New(rand.NewPCG(3, 4))

	// Winning beats blocking.
	move := choose(t, "OO. XX. ...", "O", params, rng)
	assert.Equal(t, 2, move.Position)
	assert.Equal(t, "minimax", move.Strategy)

	// Block the opponent.
	move = choose(t, "XX. .O. ...", "O", params, rng)
	assert.Equal(t, 2, move.Position)

	// Same for X.
	move = choose(t, "O.. OX. ..X", "X", params, rng)
	assert.Equal(t, 6, move.Position)
}

func TestShallowSearchUsesHeuristic(t *testing.T) {
	params := parameters.Params{"error_chance": 0.0, "max_depth": 1.0, "position_weights": []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}}
	move := choose(t, "... ... ...", "O", params, rand.New(rand.NewPCG(5, 6)))
	assert.Equal(t, 4, move.Position, "center is worth the most at depth 1")

	move = choose(t, "... .X. ...", "O", params, rand.New(rand.NewPCG(5, 6)))
	assert.Equal(t, 0, move.Position, "first corner")
}

func TestWeightedRandomMove(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))

	// Only one cell with positive weight.
	params := parameters.Params{"error_chance": 1.0, "max_depth": 9.0, "position_weights": []float64{0, 0, 0, 0, -3, 0, 0, 0, 5}}
	for range 20 {
		move := choose(t, "... ... ...", "O", params, rng)
		assert.Equal(t, 8, move.Position)
		assert.Equal(t, "heuristic", move.Strategy)
	}

	// Only zero weights on empty cells: uniform.
	seen := make(map[int]int)
	params["position_weights"] = []float64{0, 0, 0, 0, 0, 0, 0, 0, 100}
	for range 200 {
		move := choose(t, "... ... ..X", "O", params, rng)
		assert.NotEqual(t, 8, move.Position)
		seen[move.Position]++
	}
	assert.Len(t, seen, 8)

	// Proportional to the weights.
	var board [9]state.Side
	weights := []float64{1, 0, 0, 0, 3, 0, 0, 0, 0}
	counts := make(map[int]int)
	for range 4000 {
		cell, err := tictactoe.WeightedRandomCell(&board, weights, rng)
		require.NoError(t, err)
		counts[cell]++
	}
	assert.Len(t, counts, 2)
	assert.InDelta(t, 0.75, float64(counts[4])/4000, 0.05)

	_, err := tictactoe.WeightedRandomCell(&board, []float64{1, 2}, rng)
	require.ErrorIs(t, err, parameters.ErrInvalid)
}

func TestFullBoard(t *testing.T) {
	move := choose(t, "XOX XOO OXX", "O", expertParams(t), rand.New(rand.NewPCG(1, 1)))
	assert.True(t, move.IsNone())
	s := &state.TicTacToe{Board: statetest.TicTacToeBoard("XOX XOO OXX"), Player: "O"}
	assert.True(t, tictactoe.Strategy{}.Fallback(s).IsNone())
	moves, err := tictactoe.Strategy{}.LegalMoves(s)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestDecide(t *testing.T) {
	ctx := context.Background()
	key := games.Key{Game: games.TicTacToe, Difficulty: games.Expert}
	s := &state.TicTacToe{Board: statetest.TicTacToeBoard("XX. .O. ..."), Player: "O"}

	player := players.New(players.Defaults).WithSeed(1, 2)
	move, err := player.Decide(ctx, key, s)
	require.NoError(t, err)
	assert.Equal(t, state.TicTacToeMove{Position: 2, Strategy: "minimax"}, move)

	// Broken parameters degrade to the fallback move.
	broken := players.SourceFunc(func(context.Context, games.Key) (parameters.Params, error) {
		return parameters.Params{"error_chance": 1.0, "position_weights": []float64{1, 2, 3}}, nil
	})
	player = players.New(broken)
	move, err = player.Decide(ctx, key, s)
	require.NoError(t, err)
	assert.Equal(t, state.TicTacToeMove{Position: 2, Strategy: "fallback"}, move)
	assert.Equal(t, players.Stats{Decisions: 1, Fallbacks: 1}, player.Stats())

	// Invalid input is an error.
	_, err = player.Decide(ctx, key, &state.TicTacToe{Board: []state.Side{1, 2}, Player: "O"})
	require.True(t, errors.Is(err, state.ErrInvalid))
	_, err = player.Decide(ctx, games.Key{Game: games.Tron, Difficulty: games.Easy}, s)
	require.ErrorIs(t, err, state.ErrInvalid)
}
