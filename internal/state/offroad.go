package state

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/janpfeifer/arcadeai/internal/games"
)

// Dimensions of the off-road world: a grid of OffRoadGridWidth x OffRoadGridHeight cells of
// OffRoadCellSize pixels.
const (
	OffRoadGridWidth  = 40
	OffRoadGridHeight = 30
	OffRoadCellSize   = 20
)

// Terrain cell types.
const (
	TerrainEasy       = 0
	TerrainNormal     = 1
	TerrainObstacle   = 2
	TerrainCheckpoint = 3
)

// Point in world (pixel) coordinates.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Vehicle pose: position in pixels and heading in radians.
type Vehicle struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Angle float32 `json:"angle"`
}

// OffRoad state of the AI vehicle racing through an ordered list of checkpoints.
type OffRoad struct {
	Vehicle           Vehicle `json:"vehicle"`
	Checkpoints       []Point `json:"checkpoints"`
	CurrentCheckpoint int     `json:"current_checkpoint"`

	// Terrain is indexed as terrain[y][x] in cells. It may be empty, or smaller than the world:
	// cells it doesn't cover are free.
	Terrain Grid `json:"terrain"`
}

var _ GameState = (*OffRoad)(nil)

// Game implements GameState.
func (o *OffRoad) Game() games.ID { return games.OffRoad }

// Validate implements GameState.
func (o *OffRoad) Validate() error {
	if o.CurrentCheckpoint < 0 {
		return invalidf("offroad current_checkpoint must be >= 0, got %d", o.CurrentCheckpoint)
	}
	if len(o.Terrain) > 0 {
		if err := o.Terrain.Validate(); err != nil {
			return err
		}
	}
	for _, v := range []float32{o.Vehicle.X, o.Vehicle.Y, o.Vehicle.Angle} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return invalidf("offroad vehicle pose must be finite, got %+v", o.Vehicle)
		}
	}
	return nil
}

// Target returns the current checkpoint, or false if the race is over or there are no checkpoints.
func (o *OffRoad) Target() (Point, bool) {
	if o.CurrentCheckpoint >= len(o.Checkpoints) {
		return Point{}, false
	}
	return o.Checkpoints[o.CurrentCheckpoint], true
}

// CheckCollision returns whether the world point (x, y) is outside the world or on an obstacle.
func (o *OffRoad) CheckCollision(x, y float32) bool {
	if x < 0 || y < 0 {
		return true
	}
	cellX, cellY := int(x/OffRoadCellSize), int(y/OffRoadCellSize)
	if cellX >= OffRoadGridWidth || cellY >= OffRoadGridHeight {
		return true
	}
	if cellY < len(o.Terrain) && cellX < len(o.Terrain[cellY]) {
		return o.Terrain[cellY][cellX] == TerrainObstacle
	}
	return false
}

// WrapAngle returns the angle equivalent to a in [-π, π].
func WrapAngle(a float32) float32 {
	if math32.IsInf(a, 0) || math32.IsNaN(a) {
		return 0
	}
	for a > math32.Pi {
		a -= 2 * math32.Pi
	}
	for a < -math32.Pi {
		a += 2 * math32.Pi
	}
	return a
}

// OffRoadMove are the controls of the vehicle.
type OffRoadMove struct {
	// Throttle in [-1, 1].
	Throttle float32 `json:"throttle"`

	// Turn in [-1, 1]: positive turns towards increasing angles.
	Turn float32 `json:"turn"`

	// Strategy used: "pathfinding", "avoid" or "direct".
	Strategy string `json:"strategy"`
}

var _ Move = OffRoadMove{}

// OffRoadIdle is the zero response, used when there is no checkpoint to drive to.
var OffRoadIdle = OffRoadMove{Strategy: "direct"}

func (m OffRoadMove) Game() games.ID { return games.OffRoad }
func (m OffRoadMove) IsNone() bool   { return m.Throttle == 0 && m.Turn == 0 }
func (m OffRoadMove) String() string {
	return fmt.Sprintf("offroad4x4: throttle=%.2f turn=%.2f (%s)", m.Throttle, m.Turn, m.Strategy)
}
