// Package players holds the per-game decision strategies and the single dispatch point used by game loops:
// Player.Decide.
//
// Strategies register themselves (see Register) from their own sub-packages. Binaries should import
// _ "github.com/janpfeifer/arcadeai/internal/players/default" to have all of them available.
package players

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Strategy is the decision procedure of one game.
//
// Strategies are stateless: all randomness comes from the given rng, and parameters are passed on each call.
type Strategy interface {
	// Game this strategy plays.
	Game() games.ID

	// LegalMoves lists the discrete moves available to the AI, in generation order.
	// Games with continuous controls (Pong, Off-Road) return nil.
	LegalMoves(s state.GameState) ([]state.Move, error)

	// Evaluate returns a static score of the state from the AI's point of view: higher is better.
	Evaluate(s state.GameState, params parameters.Params) (float64, error)

	// ChooseMove returns the move the AI makes in state s.
	ChooseMove(s state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error)

	// Fallback returns a safe move that requires no parameters. It is used when ChooseMove fails.
	Fallback(s state.GameState) state.Move
}

var (
	muRegistry sync.RWMutex
	registry   = make(map[games.ID]Strategy)
)

// Register a Strategy for its game. A later registration for the same game replaces the previous one.
func Register(strategy Strategy) {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	registry[strategy.Game()] = strategy
}

// Get returns the Strategy registered for game.
func Get(game games.ID) (Strategy, error) {
	muRegistry.RLock()
	defer muRegistry.RUnlock()
	strategy, found := registry[game]
	if !found {
		if !game.Valid() {
			return nil, errors.Wrapf(games.ErrUnknown, "game %q", game)
		}
		return nil, errors.Errorf("no strategy registered for game %q. Perhaps you need to import _ \"github.com/janpfeifer/arcadeai/internal/players/default\" to your binary ?", game)
	}
	return strategy, nil
}

// StateAs converts s to the concrete state type a strategy expects.
func StateAs[T state.GameState](s state.GameState) (T, error) {
	concrete, ok := s.(T)
	if !ok {
		var zero T
		return zero, errors.Wrapf(state.ErrInvalid, "expected state %T, got %T", zero, s)
	}
	return concrete, nil
}

// ParamsSource provides the active parameters for a game and difficulty.
// It is implemented by paramstore.Store.
type ParamsSource interface {
	ActiveParams(ctx context.Context, key games.Key) (parameters.Params, error)
}

// SourceFunc adapts a function to a ParamsSource.
type SourceFunc func(ctx context.Context, key games.Key) (parameters.Params, error)

// ActiveParams implements ParamsSource.
func (fn SourceFunc) ActiveParams(ctx context.Context, key games.Key) (parameters.Params, error) {
	return fn(ctx, key)
}

// Defaults is a ParamsSource that always returns the built-in parameters.
var Defaults ParamsSource = SourceFunc(func(_ context.Context, key games.Key) (parameters.Params, error) {
	return parameters.Default(key)
})

// Player makes decisions for every registered game, using the parameters of a ParamsSource.
// It is safe for concurrent use.
type Player struct {
	source ParamsSource

	muSeed sync.Mutex
	seeds  *rand.Rand

	decisions, fallbacks atomic.Int64
}

// Stats of a Player, for monitoring.
type Stats struct {
	Decisions int64
	Fallbacks int64
}

// New returns a Player that reads its parameters from source. If source is nil, Defaults is used.
func New(source ParamsSource) *Player {
	if source == nil {
		source = Defaults
	}
	return &Player{source: source, seeds: rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano())))}
}

// WithSeed makes the Player deterministic: the same sequence of decisions yields the same moves.
func (p *Player) WithSeed(seed1, seed2 uint64) *Player {
	p.muSeed.Lock()
	defer p.muSeed.Unlock()
	p.seeds = rand.New(rand.NewPCG(seed1, seed2))
	return p
}

// Stats returns a snapshot of the Player counters.
func (p *Player) Stats() Stats {
	return Stats{Decisions: p.decisions.Load(), Fallbacks: p.fallbacks.Load()}
}

// newRNG returns an independent random number generator for one decision.
func (p *Player) newRNG() *rand.Rand {
	p.muSeed.Lock()
	defer p.muSeed.Unlock()
	return rand.New(rand.NewPCG(p.seeds.Uint64(), p.seeds.Uint64()))
}

// Decide returns the AI move for state s, using the active parameters of key.
//
// Invalid inputs (unknown key, a state of another game, malformed state) are returned as errors. Any failure
// after that (reading parameters, an error or a panic in the strategy) degrades to the strategy's fallback
// move, so the game loop always gets a move.
func (p *Player) Decide(ctx context.Context, key games.Key, s state.GameState) (state.Move, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.Wrapf(state.ErrInvalid, "nil state for %s", key)
	}
	if s.Game() != key.Game {
		return nil, errors.Wrapf(state.ErrInvalid, "state of game %q given for %s", s.Game(), key)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	strategy, err := Get(key.Game)
	if err != nil {
		return nil, err
	}
	p.decisions.Add(1)

	params, err := p.source.ActiveParams(ctx, key)
	if err != nil {
		return p.fallback(strategy, key, s, errors.WithMessagef(err, "reading parameters"))
	}
	var move state.Move
	err = exceptions.TryCatch[error](func() {
		var chooseErr error
		move, chooseErr = strategy.ChooseMove(s, params, p.newRNG())
		if chooseErr != nil {
			panic(chooseErr)
		}
	})
	if err == nil && move == nil {
		err = errors.New("strategy returned no move")
	}
	if err != nil {
		return p.fallback(strategy, key, s, err)
	}
	if klog.V(2).Enabled() {
		klog.Infof("decide %s: %s", key, move)
	}
	return move, nil
}

func (p *Player) fallback(strategy Strategy, key games.Key, s state.GameState, err error) (state.Move, error) {
	p.fallbacks.Add(1)
	move := strategy.Fallback(s)
	klog.Warningf("decide %s: falling back to %s: %v", key, move, err)
	return move, nil
}
