package parameters

import (
	"math"
	"slices"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/pkg/errors"
)

// Kind of value a parameter holds.
type Kind int

const (
	Number Kind = iota
	Integer
	Array
	Enum
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Integer:
		return "integer"
	case Array:
		return "array"
	case Enum:
		return "enum"
	}
	return "unknown"
}

// Spec describes one parameter of a game.
type Spec struct {
	Name string
	Kind Kind

	// Min and Max bound numeric values (and each element of arrays).
	Min, Max float64

	// Length of Array parameters.
	Length int

	// Values accepted by Enum parameters.
	Values []string

	// Optional parameters may be absent from Params: strategies fall back to a built-in value.
	Optional bool

	// Description is used when asking the oracle for adjustments.
	Description string
}

// Numeric returns whether the parameter can be averaged.
func (s Spec) Numeric() bool {
	return s.Kind == Number || s.Kind == Integer || s.Kind == Array
}

// Clamp limits a numeric value to the parameter bounds.
func (s Spec) Clamp(v float64) float64 {
	return generics.Clamp(v, s.Min, s.Max)
}

// Check returns an error if value doesn't conform to the spec. value must be in canonical form.
func (s Spec) Check(value any) error {
	switch s.Kind {
	case Number, Integer:
		f, ok := value.(float64)
		if !ok {
			return errors.Wrapf(ErrInvalid, "%q must be a number, got %T", s.Name, value)
		}
		if math.IsNaN(f) || f < s.Min || f > s.Max {
			return errors.Wrapf(ErrInvalid, "%q=%g out of range [%g, %g]", s.Name, f, s.Min, s.Max)
		}
	case Array:
		values, ok := value.([]float64)
		if !ok {
			return errors.Wrapf(ErrInvalid, "%q must be a list of numbers, got %T", s.Name, value)
		}
		if len(values) != s.Length {
			return errors.Wrapf(ErrInvalid, "%q must have %d values, got %d", s.Name, s.Length, len(values))
		}
		for ii, f := range values {
			if math.IsNaN(f) || f < s.Min || f > s.Max {
				return errors.Wrapf(ErrInvalid, "%q[%d]=%g out of range [%g, %g]", s.Name, ii, f, s.Min, s.Max)
			}
		}
	case Enum:
		str, ok := value.(string)
		if !ok || !slices.Contains(s.Values, str) {
			return errors.Wrapf(ErrInvalid, "%q must be one of %v, got %v", s.Name, s.Values, value)
		}
	}
	return nil
}

// Schema lists the parameters known for a game.
type Schema []Spec

// Lookup returns the spec for name.
func (s Schema) Lookup(name string) (Spec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Validate checks that p only holds known keys, that all required keys are present and that the
// values are within bounds. p must be normalized.
func (s Schema) Validate(p Params) error {
	for key, value := range p {
		spec, found := s.Lookup(key)
		if !found {
			return errors.Wrapf(ErrInvalid, "unknown parameter %q", key)
		}
		if err := spec.Check(value); err != nil {
			return err
		}
	}
	for _, spec := range s {
		if _, found := p[spec.Name]; !found && !spec.Optional {
			return errors.Wrapf(ErrInvalid, "missing required parameter %q", spec.Name)
		}
	}
	return nil
}

// chanceSpec describes a probability parameter.
func chanceSpec(name, desc string) Spec {
	return Spec{Name: name, Kind: Number, Min: 0, Max: 1, Description: desc}
}

var schemas = map[games.ID]Schema{
	games.Pong: {
		{Name: "base_error", Kind: Number, Min: 0, Max: 100, Description: "aim error in pixels, lower is more precise"},
		chanceSpec("reaction_delay_chance", "probability of reacting to the previous prediction, lower is faster"),
		{Name: "max_bounces", Kind: Integer, Min: 0, Max: 10, Description: "wall bounces to simulate when predicting"},
		{Name: "paddle_speed", Kind: Number, Min: 0, Max: 50, Description: "paddle speed in pixels per tick"},
		{Name: "strategy", Kind: Enum, Values: []string{"aggressive", "balanced", "defensive"}, Description: "aiming strategy"},
		{Name: "aggressive_offset", Kind: Number, Min: 0, Max: 50, Optional: true, Description: "off-center offset used by the aggressive strategy"},
		{Name: "difficulty_multiplier", Kind: Number, Min: 0, Max: 10, Optional: true, Description: "scale applied to base_error"},
	},
	games.TicTacToe: {
		chanceSpec("error_chance", "probability of a weighted-random move instead of minimax"),
		{Name: "max_depth", Kind: Integer, Min: 1, Max: 9, Description: "minimax search depth"},
		{Name: "position_weights", Kind: Array, Length: 9, Min: 0, Max: 100, Description: "weight of each cell for random moves"},
	},
	games.ChineseCheckers: {
		chanceSpec("error_chance", "probability of a heuristic move instead of minimax"),
		{Name: "max_depth", Kind: Integer, Min: 1, Max: 6, Description: "minimax search depth"},
		{Name: "aggressive_factor", Kind: Number, Min: 0, Max: 2, Description: "weight of own progress"},
		{Name: "defensive_factor", Kind: Number, Min: 0, Max: 2, Description: "weight of the opponent's progress"},
	},
	games.Tron: {
		chanceSpec("error_chance", "probability of a mistake"),
		{Name: "evade_distance", Kind: Integer, Min: 0, Max: 20, Description: "distance under which the AI runs away from the opponent"},
		{Name: "space_calculation_depth", Kind: Integer, Min: 1, Max: 2000, Description: "cap on the flood-fill count"},
		chanceSpec("randomness", "probability of a random legal move"),
	},
	games.OffRoad: {
		chanceSpec("error_chance", "probability of a mistake"),
		{Name: "look_ahead", Kind: Number, Min: 0, Max: 50, Description: "look-ahead distance for obstacles"},
		{Name: "turn_strength", Kind: Number, Min: 0, Max: 5, Description: "steering gain"},
		{Name: "throttle_power", Kind: Number, Min: 0, Max: 1, Description: "throttle when the way is clear"},
		{Name: "avoidance_sensitivity", Kind: Number, Min: 0, Max: 5, Description: "scale of the look-ahead distance"},
	},
	games.PacMan: {
		chanceSpec("error_chance", "probability of a mistake"),
		{Name: "ghost_speed", Kind: Number, Min: 0, Max: 2, Description: "ghost speed relative to Pac-Man"},
		{Name: "frightened_duration", Kind: Number, Min: 0, Max: 60000, Description: "frightened mode duration in ms"},
		chanceSpec("chase_aggression", "how aggressively ghosts chase"),
		chanceSpec("random_movement", "probability of a random ghost move"),
	},
}

// SchemaFor returns the schema of the given game.
func SchemaFor(game games.ID) (Schema, error) {
	schema, found := schemas[game]
	if !found {
		return nil, errors.Wrapf(games.ErrUnknown, "no parameter schema for game %q", game)
	}
	return schema, nil
}

// Validate normalizes p and checks it against the schema of game.
func Validate(game games.ID, p Params) error {
	schema, err := SchemaFor(game)
	if err != nil {
		return err
	}
	return schema.Validate(p.Normalize())
}
