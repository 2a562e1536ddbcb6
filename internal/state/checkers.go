package state

import (
	"fmt"

	"github.com/janpfeifer/arcadeai/internal/games"
)

// CheckersSize is the width and height of the Chinese Checkers board.
const CheckersSize = 8

// Checkers is the state of the simplified Chinese Checkers variant: an 8x8 board in row-major
// order, 0 for empty, 1 for Red and 2 for Blue.
//
// Red starts at the top and races to the bottom row, Blue starts at the bottom and races to the
// top row. Pieces move one cell orthogonally, or jump orthogonally over an adjacent opponent
// piece into an empty cell, capturing it.
type Checkers struct {
	Board []Side `json:"board"`

	// Player is the side played by the AI: "R" or "B".
	Player string `json:"player"`
}

var _ GameState = (*Checkers)(nil)

// Game implements GameState.
func (c *Checkers) Game() games.ID { return games.ChineseCheckers }

// Validate implements GameState.
func (c *Checkers) Validate() error {
	if len(c.Board) != CheckersSize*CheckersSize {
		return invalidf("chinese checkers board must have %d cells, got %d", CheckersSize*CheckersSize, len(c.Board))
	}
	for ii, cell := range c.Board {
		if cell < None || cell > Second {
			return invalidf("chinese checkers cell %d holds %d", ii, cell)
		}
	}
	if c.Player != "R" && c.Player != "B" {
		return invalidf("chinese checkers player must be \"R\" or \"B\", got %q", c.Player)
	}
	return nil
}

// AISide returns the side played by the AI.
func (c *Checkers) AISide() Side {
	if c.Player == "R" {
		return Red
	}
	return Blue
}

// Array returns a copy of the board as an array. The state must be valid.
func (c *Checkers) Array() *[64]Side {
	var b [64]Side
	copy(b[:], c.Board)
	return &b
}

// CheckersWinner returns Red if a red piece reached the bottom row, Blue if a blue piece reached
// the top row, or None. Red is checked first.
func CheckersWinner(b *[64]Side) Side {
	for ii := (CheckersSize - 1) * CheckersSize; ii < CheckersSize*CheckersSize; ii++ {
		if b[ii] == Red {
			return Red
		}
	}
	for ii := range CheckersSize {
		if b[ii] == Blue {
			return Blue
		}
	}
	return None
}

// checkersDistance is the number of rows a piece at idx still has to travel.
func checkersDistance(side Side, idx int) int {
	row := idx / CheckersSize
	if side == Blue {
		return row
	}
	return CheckersSize - 1 - row
}

// CheckersForward returns whether the move takes the piece closer to its goal row.
func CheckersForward(side Side, m CheckersMove) bool {
	return checkersDistance(side, m.To) < checkersDistance(side, m.From)
}

// EvaluateCheckers scores the average progress of each side's pieces, 10 points per row.
// Own progress is scaled by aggressive and the opponent's by defensive.
func EvaluateCheckers(b *[64]Side, me Side, aggressive, defensive float64) float64 {
	opponent := me.Opponent()
	var myDist, myCount, theirDist, theirCount int
	for ii, cell := range b {
		switch cell {
		case me:
			myDist += checkersDistance(me, ii)
			myCount++
		case opponent:
			theirDist += checkersDistance(opponent, ii)
			theirCount++
		}
	}
	var score float64
	if myCount > 0 {
		score += aggressive * (CheckersSize - 1 - float64(myDist)/float64(myCount)) * 10
	}
	if theirCount > 0 {
		score -= defensive * (CheckersSize - 1 - float64(theirDist)/float64(theirCount)) * 10
	}
	return score
}

// checkersDirections in generation order: up, down, left, right.
var checkersDirections = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// CheckersMoves lists all moves of side, scanning the board in index order. For each piece the
// single steps come first, then the jumps.
func CheckersMoves(b *[64]Side, side Side) []CheckersMove {
	var moves []CheckersMove
	for from, cell := range b {
		if cell != side {
			continue
		}
		row, col := from/CheckersSize, from%CheckersSize
		for _, d := range checkersDirections {
			r, c := row+d[0], col+d[1]
			if !checkersInside(r, c) {
				continue
			}
			if to := r*CheckersSize + c; b[to] == None {
				moves = append(moves, CheckersMove{From: from, To: to})
			}
		}
		for _, d := range checkersDirections {
			midR, midC := row+d[0], col+d[1]
			endR, endC := row+2*d[0], col+2*d[1]
			if !checkersInside(endR, endC) {
				continue
			}
			mid, end := midR*CheckersSize+midC, endR*CheckersSize+endC
			if b[mid] != None && b[mid] != side && b[end] == None {
				moves = append(moves, CheckersMove{From: from, To: end, Captures: []int{mid}})
			}
		}
	}
	return moves
}

func checkersInside(row, col int) bool {
	return row >= 0 && row < CheckersSize && col >= 0 && col < CheckersSize
}

// ApplyCheckersMove returns the board after the move: the piece keeps its owner, and captured
// pieces are removed.
func ApplyCheckersMove(b *[64]Side, m CheckersMove) *[64]Side {
	next := *b
	next[m.To] = next[m.From]
	next[m.From] = None
	for _, captured := range m.Captures {
		next[captured] = None
	}
	return &next
}

// CheckersMove moves the piece at From to To.
type CheckersMove struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Captures []int  `json:"captures,omitempty"`
	Strategy string `json:"strategy"`
}

var _ Move = CheckersMove{}

// NoCheckersMove is the sentinel returned when the AI has no legal moves.
var NoCheckersMove = CheckersMove{From: -1, To: -1, Strategy: "none"}

func (m CheckersMove) Game() games.ID { return games.ChineseCheckers }
func (m CheckersMove) IsNone() bool   { return m.From < 0 }
func (m CheckersMove) String() string {
	if len(m.Captures) > 0 {
		return fmt.Sprintf("chinese_checkers: %d→%d capturing %v (%s)", m.From, m.To, m.Captures, m.Strategy)
	}
	return fmt.Sprintf("chinese_checkers: %d→%d (%s)", m.From, m.To, m.Strategy)
}
