// Package games lists the games served by the decision engine and the difficulty levels each one is
// tuned for.
package games

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ID identifies a game.
type ID string

const (
	Pong            ID = "pong"
	TicTacToe       ID = "tictactoe"
	ChineseCheckers ID = "chinese_checkers"
	Tron            ID = "tron"
	OffRoad         ID = "offroad4x4"
	PacMan          ID = "pacman"
)

// Difficulty level of the AI opponent.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
)

// ErrUnknown is returned (wrapped) when parsing an unsupported game or difficulty.
var ErrUnknown = errors.New("unknown game or difficulty")

var (
	allGames        = []ID{Pong, TicTacToe, ChineseCheckers, Tron, OffRoad, PacMan}
	allDifficulties = []Difficulty{Easy, Medium, Hard, Expert}
)

// All returns the supported games in a fixed order.
func All() []ID {
	return append([]ID(nil), allGames...)
}

// Difficulties returns the supported difficulties, from easiest to hardest.
func Difficulties() []Difficulty {
	return append([]Difficulty(nil), allDifficulties...)
}

// ParseID returns the game ID for name, which is case-insensitive.
func ParseID(name string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	if !id.Valid() {
		return "", errors.Wrapf(ErrUnknown, "game %q", name)
	}
	return id, nil
}

// ParseDifficulty returns the Difficulty for name, which is case-insensitive.
func ParseDifficulty(name string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(name)))
	if !d.Valid() {
		return "", errors.Wrapf(ErrUnknown, "difficulty %q", name)
	}
	return d, nil
}

// Valid returns whether id is one of the supported games.
func (id ID) Valid() bool {
	for _, g := range allGames {
		if g == id {
			return true
		}
	}
	return false
}

func (id ID) String() string { return string(id) }

// Valid returns whether d is one of the supported difficulties.
func (d Difficulty) Valid() bool {
	for _, known := range allDifficulties {
		if known == d {
			return true
		}
	}
	return false
}

func (d Difficulty) String() string { return string(d) }

// Key scopes a parameter set: one per game and difficulty.
type Key struct {
	Game       ID         `json:"game_id" yaml:"game"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
}

// NewKey parses game and difficulty names into a Key.
func NewKey(game, difficulty string) (Key, error) {
	id, err := ParseID(game)
	if err != nil {
		return Key{}, err
	}
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		return Key{}, err
	}
	return Key{Game: id, Difficulty: d}, nil
}

// Validate returns an error wrapping ErrUnknown if either field is not supported.
func (k Key) Validate() error {
	if !k.Game.Valid() {
		return errors.Wrapf(ErrUnknown, "game %q", k.Game)
	}
	if !k.Difficulty.Valid() {
		return errors.Wrapf(ErrUnknown, "difficulty %q", k.Difficulty)
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Game, k.Difficulty)
}

// AllKeys enumerates every supported game × difficulty combination.
func AllKeys() []Key {
	keys := make([]Key, 0, len(allGames)*len(allDifficulties))
	for _, g := range allGames {
		for _, d := range allDifficulties {
			keys = append(keys, Key{Game: g, Difficulty: d})
		}
	}
	return keys
}
