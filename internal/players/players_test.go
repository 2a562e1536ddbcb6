package players

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStrategy plays Tron by calling choose.
type fakeStrategy struct {
	choose func(params parameters.Params, rng *rand.Rand) (state.Move, error)
}

func (f fakeStrategy) Game() games.ID                                               { return games.Tron }
func (f fakeStrategy) LegalMoves(state.GameState) ([]state.Move, error)             { return nil, nil }
func (f fakeStrategy) Evaluate(state.GameState, parameters.Params) (float64, error) { return 0, nil }
func (f fakeStrategy) ChooseMove(_ state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error) {
	return f.choose(params, rng)
}
func (f fakeStrategy) Fallback(state.GameState) state.Move { return state.TronForcedLoss }

// withStrategy registers strategy for the duration of the test.
func withStrategy(t *testing.T, strategy Strategy) {
	muRegistry.Lock()
	previous, found := registry[strategy.Game()]
	registry[strategy.Game()] = strategy
	muRegistry.Unlock()
	t.Cleanup(func() {
		muRegistry.Lock()
		defer muRegistry.Unlock()
		if found {
			registry[strategy.Game()] = previous
		} else {
			delete(registry, strategy.Game())
		}
	})
}

var (
	tronKey   = games.Key{Game: games.Tron, Difficulty: games.Hard}
	tronState = &state.Tron{Grid: state.Grid{{0, 0}, {0, 0}}, AI: state.Pos{X: 0, Y: 0}, Opponent: state.Pos{X: 1, Y: 1}}
	upMove    = state.TronMove{Direction: state.Up, Strategy: "test"}
)

func TestRegistry(t *testing.T) {
	_, err := Get("chess")
	require.ErrorIs(t, err, games.ErrUnknown)

	_, err = Get(games.Tron)
	require.Error(t, err)

	withStrategy(t, fakeStrategy{})
	strategy, err := Get(games.Tron)
	require.NoError(t, err)
	assert.Equal(t, games.Tron, strategy.Game())
}

func TestDecide(t *testing.T) {
	ctx := context.Background()
	var gotParams parameters.Params
	withStrategy(t, fakeStrategy{choose: func(params parameters.Params, rng *rand.Rand) (state.Move, error) {
		gotParams = params
		return upMove, nil
	}})
	player := New(nil)
	move, err := player.Decide(ctx, tronKey, tronState)
	require.NoError(t, err)
	assert.Equal(t, upMove, move)
	want, err := parameters.Default(tronKey)
	require.NoError(t, err)
	assert.Equal(t, want, gotParams)
	assert.Equal(t, Stats{Decisions: 1}, player.Stats())
}

func TestDecideFallbacks(t *testing.T) {
	ctx := context.Background()
	for name, choose := range map[string]func(parameters.Params, *rand.Rand) (state.Move, error){
		"error": func(parameters.Params, *rand.Rand) (state.Move, error) { return nil, errors.New("boom") },
		"panic": func(parameters.Params, *rand.Rand) (state.Move, error) { exceptions.Panicf("boom"); return nil, nil },
		"runtime": func(parameters.Params, *rand.Rand) (state.Move, error) {
			var s []int
			return upMove, errors.Errorf("%d", s[1])
		},
		"nil move": func(parameters.Params, *rand.Rand) (state.Move, error) { return nil, nil },
	} {
		t.Run(name, func(t *testing.T) {
			withStrategy(t, fakeStrategy{choose: choose})
			player := New(Defaults)
			move, err := player.Decide(ctx, tronKey, tronState)
			require.NoError(t, err)
			assert.Equal(t, state.TronForcedLoss, move)
			assert.Equal(t, Stats{Decisions: 1, Fallbacks: 1}, player.Stats())
		})
	}

	// Failing to read parameters.
	withStrategy(t, fakeStrategy{choose: func(parameters.Params, *rand.Rand) (state.Move, error) { return upMove, nil }})
	player := New(SourceFunc(func(context.Context, games.Key) (parameters.Params, error) {
		return nil, errors.New("store is down")
	}))
	move, err := player.Decide(ctx, tronKey, tronState)
	require.NoError(t, err)
	assert.Equal(t, state.TronForcedLoss, move)
	assert.Equal(t, int64(1), player.Stats().Fallbacks)
}

func TestDecideInvalid(t *testing.T) {
	ctx := context.Background()
	withStrategy(t, fakeStrategy{choose: func(parameters.Params, *rand.Rand) (state.Move, error) { return upMove, nil }})
	player := New(Defaults)

	_, err := player.Decide(ctx, games.Key{Game: games.Tron, Difficulty: "impossible"}, tronState)
	require.ErrorIs(t, err, games.ErrUnknown)

	_, err = player.Decide(ctx, tronKey, nil)
	require.ErrorIs(t, err, state.ErrInvalid)

	_, err = player.Decide(ctx, tronKey, state.NewPong())
	require.ErrorIs(t, err, state.ErrInvalid)

	_, err = player.Decide(ctx, tronKey, &state.Tron{Grid: state.Grid{{0}}, AI: state.Pos{X: 3, Y: 0}})
	require.ErrorIs(t, err, state.ErrInvalid)

	assert.Zero(t, player.Stats().Decisions)
}

func TestSeeded(t *testing.T) {
	ctx := context.Background()
	withStrategy(t, fakeStrategy{choose: func(_ parameters.Params, rng *rand.Rand) (state.Move, error) {
		return state.TronMove{Direction: state.Directions[rng.IntN(len(state.Directions))]}, nil
	}})
	play := func() (moves []state.Move) {
		player := New(Defaults).WithSeed(7, 11)
		for range 20 {
			move, err := player.Decide(ctx, tronKey, tronState)
			require.NoError(t, err)
			moves = append(moves, move)
		}
		return
	}
	assert.Equal(t, play(), play())
}

func TestShouldSearch(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	always, err := ShouldSearch(parameters.Params{"error_chance": 0.0}, rng)
	require.NoError(t, err)
	assert.True(t, always)
	never, err := ShouldSearch(parameters.Params{"error_chance": 1.0}, rng)
	require.NoError(t, err)
	assert.False(t, never)
	_, err = ShouldSearch(parameters.Params{"error_chance": "often"}, rng)
	require.Error(t, err)
}
