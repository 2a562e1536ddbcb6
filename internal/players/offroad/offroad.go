// Package offroad implements the 4x4 off-road strategy: steer towards the current checkpoint, and
// turn hard when an obstacle is right ahead.
package offroad

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/state"
)

func init() {
	players.Register(Strategy{})
}

// AvoidThrottle is the throttle used while turning away from an obstacle.
const AvoidThrottle = 0.5

// Strategy implements players.Strategy for the off-road game.
type Strategy struct{}

var _ players.Strategy = Strategy{}

// Game implements players.Strategy.
func (Strategy) Game() games.ID { return games.OffRoad }

// LegalMoves implements players.Strategy. Controls are continuous, so it returns nil.
func (Strategy) LegalMoves(s state.GameState) ([]state.Move, error) {
	_, err := players.StateAs[*state.OffRoad](s)
	return nil, err
}

// Evaluate implements players.Strategy: minus the distance in pixels to the current checkpoint, or 0
// if there is none.
func (Strategy) Evaluate(s state.GameState, _ parameters.Params) (float64, error) {
	o, err := players.StateAs[*state.OffRoad](s)
	if err != nil {
		return 0, err
	}
	target, ok := o.Target()
	if !ok {
		return 0, nil
	}
	return -float64(math32.Hypot(target.X-o.Vehicle.X, target.Y-o.Vehicle.Y)), nil
}

// HeadingError returns the angle the vehicle has to turn to face point, in [-π, π].
func HeadingError(v state.Vehicle, point state.Point) float32 {
	return state.WrapAngle(math32.Atan2(point.Y-v.Y, point.X-v.X) - v.Angle)
}

// ChooseMove implements players.Strategy.
func (Strategy) ChooseMove(s state.GameState, params parameters.Params, _ *rand.Rand) (state.Move, error) {
	o, err := players.StateAs[*state.OffRoad](s)
	if err != nil {
		return nil, err
	}
	lookAhead, err := parameters.GetParamOr(params, "look_ahead", float32(3))
	if err != nil {
		return nil, err
	}
	sensitivity, err := parameters.GetParamOr(params, "avoidance_sensitivity", float32(1))
	if err != nil {
		return nil, err
	}
	turnStrength, err := parameters.GetParamOr(params, "turn_strength", float32(1))
	if err != nil {
		return nil, err
	}
	throttle, err := parameters.GetParamOr(params, "throttle_power", float32(1))
	if err != nil {
		return nil, err
	}

	target, ok := o.Target()
	if !ok {
		return state.OffRoadIdle, nil
	}
	v := o.Vehicle
	headingErr := HeadingError(v, target)
	distance := lookAhead * sensitivity
	sin, cos := math32.Sincos(v.Angle)
	if o.CheckCollision(v.X+cos*distance, v.Y+sin*distance) {
		turn := float32(1)
		if headingErr < 0 {
			turn = -1
		}
		return state.OffRoadMove{Throttle: AvoidThrottle, Turn: turn, Strategy: "avoid"}, nil
	}
	return state.OffRoadMove{
		Throttle: throttle,
		Turn:     generics.Clamp(headingErr*turnStrength, -1, 1),
		Strategy: "pathfinding",
	}, nil
}

// Fallback implements players.Strategy: stand still.
func (Strategy) Fallback(state.GameState) state.Move {
	return state.OffRoadIdle
}
