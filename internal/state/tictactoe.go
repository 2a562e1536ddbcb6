package state

import (
	"fmt"
	"strings"

	"github.com/janpfeifer/arcadeai/internal/games"
)

// TicTacToe state: 9 cells in row-major order, 0 for empty, 1 for X and 2 for O.
type TicTacToe struct {
	Board []Side `json:"board"`

	// Player is the side played by the AI: "X" or "O".
	Player string `json:"player"`
}

var _ GameState = (*TicTacToe)(nil)

// Game implements GameState.
func (t *TicTacToe) Game() games.ID { return games.TicTacToe }

// Validate implements GameState.
func (t *TicTacToe) Validate() error {
	if len(t.Board) != 9 {
		return invalidf("tictactoe board must have 9 cells, got %d", len(t.Board))
	}
	for ii, c := range t.Board {
		if c < None || c > Second {
			return invalidf("tictactoe cell %d holds %d", ii, c)
		}
	}
	if t.Player != "X" && t.Player != "O" {
		return invalidf("tictactoe player must be \"X\" or \"O\", got %q", t.Player)
	}
	return nil
}

// AISide returns the side played by the AI.
func (t *TicTacToe) AISide() Side {
	if t.Player == "X" {
		return X
	}
	return O
}

// Array returns a copy of the board as an array. The state must be valid.
func (t *TicTacToe) Array() *[9]Side {
	var b [9]Side
	copy(b[:], t.Board)
	return &b
}

// TicTacToeLines are the 8 winning lines: rows, columns and diagonals.
var TicTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToeWinner returns the side owning a full line, or None.
func TicTacToeWinner(b *[9]Side) Side {
	for _, line := range TicTacToeLines {
		v := b[line[0]]
		if v != None && v == b[line[1]] && v == b[line[2]] {
			return v
		}
	}
	return None
}

// TicTacToeFull returns whether there are no empty cells left.
func TicTacToeFull(b *[9]Side) bool {
	for _, c := range b {
		if c == None {
			return false
		}
	}
	return true
}

// TicTacToeEmptyCells returns the indices of the empty cells, in increasing order.
func TicTacToeEmptyCells(b *[9]Side) []int {
	cells := make([]int, 0, 9)
	for ii, c := range b {
		if c == None {
			cells = append(cells, ii)
		}
	}
	return cells
}

var ticTacToeCorners = [4]int{0, 2, 6, 8}

// EvaluateTicTacToe is the static score of a board for me: ±100 for a decided board, otherwise
// ±10 for holding the center and 3 per corner advantage.
func EvaluateTicTacToe(b *[9]Side, me Side) float64 {
	opponent := me.Opponent()
	switch TicTacToeWinner(b) {
	case me:
		return 100
	case opponent:
		return -100
	}
	var score float64
	switch b[4] {
	case me:
		score += 10
	case opponent:
		score -= 10
	}
	var mine, theirs int
	for _, c := range ticTacToeCorners {
		switch b[c] {
		case me:
			mine++
		case opponent:
			theirs++
		}
	}
	return score + float64(mine-theirs)*3
}

// TicTacToeString renders a board as 3 lines of "X", "O" and ".".
func TicTacToeString(b *[9]Side) string {
	var sb strings.Builder
	for ii, c := range b {
		switch c {
		case X:
			sb.WriteByte('X')
		case O:
			sb.WriteByte('O')
		default:
			sb.WriteByte('.')
		}
		if ii%3 == 2 && ii < 8 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// TicTacToeMove is the cell chosen by the AI.
type TicTacToeMove struct {
	// Position is the cell index (0-8), or -1 if there were no moves.
	Position int `json:"position"`

	// Strategy used: "minimax" or "heuristic".
	Strategy string `json:"strategy"`
}

var _ Move = TicTacToeMove{}

// NoTicTacToeMove is the sentinel returned for full or decided boards.
var NoTicTacToeMove = TicTacToeMove{Position: -1, Strategy: "none"}

func (m TicTacToeMove) Game() games.ID { return games.TicTacToe }
func (m TicTacToeMove) IsNone() bool   { return m.Position < 0 }
func (m TicTacToeMove) String() string {
	return fmt.Sprintf("tictactoe: cell %d (%s)", m.Position, m.Strategy)
}
