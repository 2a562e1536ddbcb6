// Package statetest provides helper functions to build game states in tests from readable strings.
package statetest

import (
	"fmt"
	"strings"

	"github.com/janpfeifer/arcadeai/internal/state"
)

// ParseGrid parses rows of equal length: '.' is 0, '#' is 1, and digits are their value.
func ParseGrid(rows ...string) state.Grid {
	g := make(state.Grid, len(rows))
	for y, row := range rows {
		g[y] = make([]int, len(row))
		for x, c := range row {
			switch {
			case c == '.':
				g[y][x] = 0
			case c == '#':
				g[y][x] = 1
			case c >= '0' && c <= '9':
				g[y][x] = int(c - '0')
			default:
				panic(fmt.Sprintf("statetest.ParseGrid: invalid cell %q at (%d, %d)", c, x, y))
			}
		}
	}
	return g
}

// TicTacToeBoard parses a 9 character board ("X", "O" and "."); spaces and newlines are ignored.
func TicTacToeBoard(layout string) []state.Side {
	return parseBoard(layout, 9, map[rune]state.Side{'X': state.X, 'O': state.O, '.': state.None})
}

// CheckersBoard parses an 8x8 board ("R", "B" and "."); spaces and newlines are ignored.
func CheckersBoard(layout string) []state.Side {
	return parseBoard(layout, state.CheckersSize*state.CheckersSize, map[rune]state.Side{'R': state.Red, 'B': state.Blue, '.': state.None})
}

func parseBoard(layout string, size int, cells map[rune]state.Side) []state.Side {
	board := make([]state.Side, 0, size)
	for _, c := range layout {
		if strings.ContainsRune(" \t\n", c) {
			continue
		}
		side, ok := cells[c]
		if !ok {
			panic(fmt.Sprintf("statetest: invalid board cell %q", c))
		}
		board = append(board, side)
	}
	if len(board) != size {
		panic(fmt.Sprintf("statetest: board has %d cells, wanted %d", len(board), size))
	}
	return board
}

// CheckersStart is the initial position: two rows of Red at the top and two rows of Blue at the bottom.
const CheckersStart = `
RRRRRRRR
RRRRRRRR
........
........
........
........
BBBBBBBB
BBBBBBBB`
