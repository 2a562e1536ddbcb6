package parameters

import (
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/pkg/errors"
)

// defaults holds the built-in parameters of every game and difficulty.
// It is never mutated: Default returns clones.
var defaults = map[games.ID]map[games.Difficulty]Params{
	games.Pong: {
		games.Easy:   {"base_error": 50.0, "reaction_delay_chance": 0.2, "max_bounces": 1.0, "paddle_speed": 4.0, "strategy": "defensive"},
		games.Medium: {"base_error": 20.0, "reaction_delay_chance": 0.05, "max_bounces": 2.0, "paddle_speed": 6.0, "strategy": "balanced"},
		games.Hard:   {"base_error": 5.0, "reaction_delay_chance": 0.01, "max_bounces": 3.0, "paddle_speed": 8.0, "strategy": "balanced"},
		games.Expert: {"base_error": 0.0, "reaction_delay_chance": 0.0, "max_bounces": 5.0, "paddle_speed": 10.0, "strategy": "aggressive"},
	},
	games.TicTacToe: {
		games.Easy:   {"error_chance": 0.4, "max_depth": 2.0, "position_weights": []float64{2, 1, 2, 1, 3, 1, 2, 1, 2}},
		games.Medium: {"error_chance": 0.15, "max_depth": 4.0, "position_weights": []float64{3, 2, 3, 2, 4, 2, 3, 2, 3}},
		games.Hard:   {"error_chance": 0.02, "max_depth": 6.0, "position_weights": []float64{3, 2, 3, 2, 4, 2, 3, 2, 3}},
		games.Expert: {"error_chance": 0.0, "max_depth": 9.0, "position_weights": []float64{3, 2, 3, 2, 4, 2, 3, 2, 3}},
	},
	games.ChineseCheckers: {
		games.Easy:   {"error_chance": 0.4, "max_depth": 2.0, "aggressive_factor": 0.5, "defensive_factor": 0.8},
		games.Medium: {"error_chance": 0.15, "max_depth": 3.0, "aggressive_factor": 0.7, "defensive_factor": 0.9},
		games.Hard:   {"error_chance": 0.02, "max_depth": 4.0, "aggressive_factor": 0.9, "defensive_factor": 1.0},
		games.Expert: {"error_chance": 0.0, "max_depth": 5.0, "aggressive_factor": 1.0, "defensive_factor": 1.0},
	},
	games.Tron: {
		games.Easy:   {"error_chance": 0.3, "evade_distance": 8.0, "space_calculation_depth": 50.0, "randomness": 0.4},
		games.Medium: {"error_chance": 0.15, "evade_distance": 5.0, "space_calculation_depth": 100.0, "randomness": 0.2},
		games.Hard:   {"error_chance": 0.05, "evade_distance": 3.0, "space_calculation_depth": 150.0, "randomness": 0.1},
		games.Expert: {"error_chance": 0.0, "evade_distance": 2.0, "space_calculation_depth": 200.0, "randomness": 0.0},
	},
	games.OffRoad: {
		games.Easy:   {"error_chance": 0.3, "look_ahead": 2.0, "turn_strength": 0.5, "throttle_power": 0.7, "avoidance_sensitivity": 0.6},
		games.Medium: {"error_chance": 0.15, "look_ahead": 3.0, "turn_strength": 0.8, "throttle_power": 0.8, "avoidance_sensitivity": 0.8},
		games.Hard:   {"error_chance": 0.05, "look_ahead": 4.0, "turn_strength": 1.0, "throttle_power": 0.9, "avoidance_sensitivity": 1.0},
		games.Expert: {"error_chance": 0.0, "look_ahead": 5.0, "turn_strength": 1.2, "throttle_power": 1.0, "avoidance_sensitivity": 1.2},
	},
	games.PacMan: {
		games.Easy:   {"error_chance": 0.3, "ghost_speed": 0.7, "frightened_duration": 10000.0, "chase_aggression": 0.5, "random_movement": 0.4},
		games.Medium: {"error_chance": 0.15, "ghost_speed": 0.8, "frightened_duration": 8000.0, "chase_aggression": 0.7, "random_movement": 0.2},
		games.Hard:   {"error_chance": 0.05, "ghost_speed": 0.9, "frightened_duration": 6000.0, "chase_aggression": 0.9, "random_movement": 0.1},
		games.Expert: {"error_chance": 0.0, "ghost_speed": 1.0, "frightened_duration": 5000.0, "chase_aggression": 1.0, "random_movement": 0.0},
	},
}

// Default returns a copy of the built-in parameters for key.
//
// It returns an error wrapping games.ErrUnknown if key is not supported. Every supported key has a
// default: this is checked by ValidateDefaults.
func Default(key games.Key) (Params, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	p, found := defaults[key.Game][key.Difficulty]
	if !found {
		return nil, errors.Errorf("missing default parameters for %s", key)
	}
	return p.Clone(), nil
}

// ValidateDefaults checks that every supported game and difficulty has a default table, and that
// the tables conform to the schema.
//
// Commands call it at start-up: a missing or broken table is a configuration error.
func ValidateDefaults() error {
	for _, key := range games.AllKeys() {
		p, err := Default(key)
		if err != nil {
			return err
		}
		if err := Validate(key.Game, p); err != nil {
			return errors.WithMessagef(err, "default parameters for %s", key)
		}
	}
	return nil
}
