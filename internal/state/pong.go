package state

import (
	"fmt"
	"math"

	"github.com/janpfeifer/arcadeai/internal/games"
)

// Pong state, in canvas pixels. The AI paddle is on the right edge (x = CanvasWidth).
type Pong struct {
	BallX  float64 `json:"ball_x"`
	BallY  float64 `json:"ball_y"`
	BallVX float64 `json:"ball_vx"`
	BallVY float64 `json:"ball_vy"`

	// PaddleY is the top of the AI paddle.
	PaddleY      float64 `json:"paddle_y"`
	PaddleHeight float64 `json:"paddle_height"`

	CanvasWidth  float64 `json:"canvas_width"`
	CanvasHeight float64 `json:"canvas_height"`

	// LastPredictedY is the prediction of the previous tick, if the caller kept it. It is used to
	// simulate reaction delay.
	LastPredictedY *float64 `json:"last_predicted_y,omitempty"`
}

var _ GameState = (*Pong)(nil)

// NewPong returns a state with the default canvas (800x500), paddle and a ball moving right from
// the center.
func NewPong() *Pong {
	return &Pong{
		BallX: 400, BallY: 250, BallVX: 5, BallVY: 3,
		PaddleY: 200, PaddleHeight: 100,
		CanvasWidth: 800, CanvasHeight: 500,
	}
}

// Game implements GameState.
func (p *Pong) Game() games.ID { return games.Pong }

// Validate implements GameState.
func (p *Pong) Validate() error {
	for name, v := range map[string]float64{
		"ball_x": p.BallX, "ball_y": p.BallY, "ball_vx": p.BallVX, "ball_vy": p.BallVY,
		"paddle_y": p.PaddleY, "paddle_height": p.PaddleHeight,
		"canvas_width": p.CanvasWidth, "canvas_height": p.CanvasHeight,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalidf("pong %s is not a finite number", name)
		}
	}
	if p.CanvasWidth <= 0 || p.CanvasHeight <= 0 {
		return invalidf("pong canvas must be positive, got %gx%g", p.CanvasWidth, p.CanvasHeight)
	}
	if p.PaddleHeight <= 0 || p.PaddleHeight > p.CanvasHeight {
		return invalidf("pong paddle height %g must be in (0, %g]", p.PaddleHeight, p.CanvasHeight)
	}
	if p.LastPredictedY != nil && (math.IsNaN(*p.LastPredictedY) || math.IsInf(*p.LastPredictedY, 0)) {
		return invalidf("pong last_predicted_y is not a finite number")
	}
	return nil
}

// PredictIntercept returns the y where the ball will cross the right edge of the canvas.
//
// The straight trajectory is reflected on the top (y' = -y) and bottom (y' = 2h - y) walls, at
// most maxBounces times. If the ball is not moving right, its current y is returned.
func (p *Pong) PredictIntercept(maxBounces int) float64 {
	if p.BallVX <= 0 {
		return p.BallY
	}
	timeToEdge := (p.CanvasWidth - p.BallX) / p.BallVX
	y := p.BallY + p.BallVY*timeToEdge
	h := p.CanvasHeight
	for bounces := 0; bounces < maxBounces; bounces++ {
		if y >= 0 && y <= h {
			break
		}
		if y < 0 {
			y = -y
		} else {
			y = 2*h - y
		}
	}
	return y
}

// PongMove is the target position of the AI paddle.
type PongMove struct {
	// TargetY is the top of the paddle where the AI wants to be.
	TargetY float64 `json:"target_y"`

	// PredictedY is where the AI believes the ball will cross its edge. Callers should feed it back
	// as Pong.LastPredictedY on the next tick.
	PredictedY float64 `json:"predicted_y"`

	// Confidence in [0, 1] of the prediction.
	Confidence float64 `json:"confidence"`
}

var _ Move = PongMove{}

func (m PongMove) Game() games.ID { return games.Pong }
func (m PongMove) IsNone() bool   { return false }
func (m PongMove) String() string {
	return fmt.Sprintf("pong: target_y=%.1f predicted_y=%.1f confidence=%.2f", m.TargetY, m.PredictedY, m.Confidence)
}
