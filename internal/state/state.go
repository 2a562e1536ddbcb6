// Package state defines the game states the AIs decide on, the moves they return, and the pure
// evaluators over those states: winner checks, static heuristics, flood-fill space counting and
// collision checks.
//
// GameState is a tagged variant: each game has its own concrete type, and Game() returns the tag.
// All functions in this package are free of side effects.
package state

import (
	"encoding/json"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/pkg/errors"
)

// ErrInvalid is returned (wrapped) for malformed game states.
var ErrInvalid = errors.New("invalid game state")

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalid, format, args...)
}

// GameState is implemented by the state of each game.
type GameState interface {
	// Game returns the variant tag.
	Game() games.ID

	// Validate returns an error wrapping ErrInvalid if the state is malformed: wrong board sizes,
	// ragged grids, positions out of the grid, etc.
	Validate() error
}

// Move is the decision of an AI for one game. Each game has its own concrete type.
type Move interface {
	Game() games.ID

	// IsNone returns whether this is the "no-move" sentinel: returned when there are no legal moves.
	IsNone() bool

	String() string
}

// New returns an empty state for the given game, with the default values used when decoding.
func New(game games.ID) (GameState, error) {
	switch game {
	case games.Pong:
		return NewPong(), nil
	case games.TicTacToe:
		return &TicTacToe{Player: "O"}, nil
	case games.ChineseCheckers:
		return &Checkers{Player: "B"}, nil
	case games.Tron:
		return &Tron{}, nil
	case games.OffRoad:
		return &OffRoad{}, nil
	case games.PacMan:
		return &PacMan{}, nil
	}
	return nil, errors.Wrapf(games.ErrUnknown, "game %q", game)
}

// Decode the JSON representation of a state of the given game, and validates it.
//
// Fields missing from data take the defaults of New.
func Decode(game games.ID, data []byte) (GameState, error) {
	s, err := New(game)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(ErrInvalid, "decoding %s state: %v", game, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Side identifies a player of the two-player board games. Its values match the cell encoding
// of the boards: 0 for empty, 1 and 2 for each player.
type Side int8

const (
	None Side = iota
	First
	Second
)

// Naming of the sides in each game.
const (
	X    = First
	O    = Second
	Red  = First
	Blue = Second
)

// Opponent returns the other side. The opponent of None is None.
func (s Side) Opponent() Side {
	switch s {
	case First:
		return Second
	case Second:
		return First
	}
	return None
}

func (s Side) String() string {
	switch s {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return "none"
}

// CheckWinner returns the winner of a TicTacToe or Checkers state, or None if the match is not
// decided. Other games have no board winner and return an error.
func CheckWinner(s GameState) (Side, error) {
	if err := s.Validate(); err != nil {
		return None, err
	}
	switch v := s.(type) {
	case *TicTacToe:
		return TicTacToeWinner(v.Array()), nil
	case *Checkers:
		return CheckersWinner(v.Array()), nil
	}
	return None, errors.Errorf("game %q has no board winner", s.Game())
}

// EvaluateHeuristic returns the static score of a TicTacToe or Checkers board from the point of view
// of perspective: positive is good for perspective.
func EvaluateHeuristic(s GameState, perspective Side) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if perspective != First && perspective != Second {
		return 0, invalidf("perspective must be one of the two sides, got %s", perspective)
	}
	switch v := s.(type) {
	case *TicTacToe:
		return EvaluateTicTacToe(v.Array(), perspective), nil
	case *Checkers:
		return EvaluateCheckers(v.Array(), perspective, 1, 1), nil
	}
	return 0, errors.Errorf("game %q has no board heuristic", s.Game())
}
