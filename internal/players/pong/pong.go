// Package pong implements the Pong strategy: predict where the ball crosses the AI edge, then
// degrade the prediction according to the difficulty parameters.
package pong

import (
	"math"
	"math/rand/v2"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/pkg/errors"
)

func init() {
	players.Register(Strategy{})
}

// Default values of optional parameters.
const (
	DefaultMaxBounces       = 2
	DefaultBaseError        = 20.0
	DefaultReactionDelay    = 0.05
	DefaultAggressiveOffset = 15.0
)

// Strategy implements players.Strategy for Pong.
type Strategy struct{}

var _ players.Strategy = Strategy{}

// Game implements players.Strategy.
func (Strategy) Game() games.ID { return games.Pong }

// LegalMoves implements players.Strategy. Pong has continuous controls, so it returns nil.
func (Strategy) LegalMoves(s state.GameState) ([]state.Move, error) {
	_, err := players.StateAs[*state.Pong](s)
	return nil, err
}

// Evaluate implements players.Strategy: minus the distance in pixels from the paddle center to the
// predicted interception.
func (Strategy) Evaluate(s state.GameState, params parameters.Params) (float64, error) {
	p, err := players.StateAs[*state.Pong](s)
	if err != nil {
		return 0, err
	}
	maxBounces, err := parameters.GetParamOr(params, "max_bounces", DefaultMaxBounces)
	if err != nil {
		return 0, err
	}
	center := p.PaddleY + p.PaddleHeight/2
	return -math.Abs(center - p.PredictIntercept(maxBounces)), nil
}

// ChooseMove implements players.Strategy.
func (Strategy) ChooseMove(s state.GameState, params parameters.Params, rng *rand.Rand) (state.Move, error) {
	p, err := players.StateAs[*state.Pong](s)
	if err != nil {
		return nil, err
	}
	maxBounces, err := parameters.GetParamOr(params, "max_bounces", DefaultMaxBounces)
	if err != nil {
		return nil, err
	}
	baseError, err := parameters.GetParamOr(params, "base_error", DefaultBaseError)
	if err != nil {
		return nil, err
	}
	multiplier, err := parameters.GetParamOr(params, "difficulty_multiplier", 1.0)
	if err != nil {
		return nil, err
	}
	reactionDelay, err := parameters.GetParamOr(params, "reaction_delay_chance", DefaultReactionDelay)
	if err != nil {
		return nil, err
	}
	strategy, err := parameters.GetParamOr(params, "strategy", "balanced")
	if err != nil {
		return nil, err
	}
	offset, err := parameters.GetParamOr(params, "aggressive_offset", DefaultAggressiveOffset)
	if err != nil {
		return nil, err
	}

	predicted := p.PredictIntercept(maxBounces)
	errorRange := baseError * multiplier
	predicted += (2*rng.Float64() - 1) * errorRange
	if rng.Float64() < reactionDelay && p.LastPredictedY != nil {
		predicted = *p.LastPredictedY
	}

	target := predicted - p.PaddleHeight/2
	switch strategy {
	case "aggressive":
		target += offset
	case "defensive":
		target = 0.9*target + 0.1*p.CanvasHeight/2
	case "balanced":
	default:
		return nil, errors.Wrapf(parameters.ErrInvalid, "unknown pong strategy %q", strategy)
	}
	return state.PongMove{
		TargetY:    generics.Clamp(target, 0, p.CanvasHeight-p.PaddleHeight),
		PredictedY: predicted,
		Confidence: generics.Clamp(1-baseError/100, 0, 1),
	}, nil
}

// Fallback implements players.Strategy: follow the ball's current height.
func (Strategy) Fallback(s state.GameState) state.Move {
	p, err := players.StateAs[*state.Pong](s)
	if err != nil {
		p = state.NewPong()
	}
	return state.PongMove{
		TargetY:    generics.Clamp(p.BallY-p.PaddleHeight/2, 0, p.CanvasHeight-p.PaddleHeight),
		PredictedY: p.BallY,
	}
}
