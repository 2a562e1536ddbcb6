package tron_test

import (
	"math/rand/v2"
	"testing"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players/tron"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/janpfeifer/arcadeai/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(evade, depth int, randomness float64) parameters.Params {
	return parameters.Params{
		"error_chance":            0.0,
		"evade_distance":          float64(evade),
		"space_calculation_depth": float64(depth),
		"randomness":              randomness,
	}
}

func choose(t *testing.T, s *state.Tron, p parameters.Params) state.TronMove {
	require.NoError(t, s.Validate())
	move, err := tron.Strategy{}.ChooseMove(s, p, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return move.(state.TronMove)
}

// corridor has a small region on the left (6 cells) and a larger one on the right (8 cells)
// connected only through the AI head at (2, 1). The opponent is at (5, 2).
func corridor() *state.Tron {
	return &state.Tron{
		Grid: statetest.ParseGrid(
			"..#...",
			"..2...",
			"..#..1",
		),
		AI:       state.Pos{X: 2, Y: 1},
		Opponent: state.Pos{X: 5, Y: 2},
	}
}

func TestPathfinding(t *testing.T) {
	s := corridor()
	assert.Equal(t, state.TronMove{Direction: state.Right, Strategy: "pathfinding"}, choose(t, s, params(2, 100, 0)))

	// With a small cap both sides look the same, and the first direction wins.
	assert.Equal(t, state.TronMove{Direction: state.Left, Strategy: "pathfinding"}, choose(t, s, params(2, 3, 0)))
}

func TestEvade(t *testing.T) {
	s := &state.Tron{
		Grid:     statetest.ParseGrid(".....", "...1.", "..2..", ".....", "....."),
		AI:       state.Pos{X: 2, Y: 2},
		Opponent: state.Pos{X: 3, Y: 1},
	}
	// DOWN and LEFT both end 3 cells away from the opponent: DOWN comes first.
	assert.Equal(t, state.TronMove{Direction: state.Down, Strategy: "evade"}, choose(t, s, params(5, 100, 0)))

	// Far enough: no evasion.
	assert.Equal(t, "pathfinding", choose(t, s, params(2, 100, 0)).Strategy)
}

func TestRandom(t *testing.T) {
	s := corridor()
	rng := rand.New(rand.NewPCG(3, 4))
	seen := make(map[state.Direction]bool)
	for range 50 {
		move, err := tron.Strategy{}.ChooseMove(s, params(2, 100, 1), rng)
		require.NoError(t, err)
		m := move.(state.TronMove)
		assert.Equal(t, "random", m.Strategy)
		seen[m.Direction] = true
	}
	assert.Equal(t, map[state.Direction]bool{state.Left: true, state.Right: true}, seen)
}

func TestForcedLoss(t *testing.T) {
	s := &state.Tron{
		Grid:     statetest.ParseGrid("#1#", "121", "#1."),
		AI:       state.Pos{X: 1, Y: 1},
		Opponent: state.Pos{X: 2, Y: 2},
	}
	assert.Equal(t, state.TronForcedLoss, choose(t, s, params(2, 100, 0)))
	assert.Equal(t, state.TronForcedLoss, tron.Strategy{}.Fallback(s))
	moves, err := tron.Strategy{}.LegalMoves(s)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestEvaluateAndLegalMoves(t *testing.T) {
	s := corridor()
	score, err := tron.Strategy{}.Evaluate(s, params(2, 100, 0))
	require.NoError(t, err)
	assert.Equal(t, float64(14-8), score)

	moves, err := tron.Strategy{}.LegalMoves(s)
	require.NoError(t, err)
	assert.Equal(t, []state.Move{state.TronMove{Direction: state.Left}, state.TronMove{Direction: state.Right}}, moves)
	assert.Equal(t, state.TronMove{Direction: state.Left, Strategy: "fallback"}, tron.Strategy{}.Fallback(s))
}
