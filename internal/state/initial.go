package state

import (
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/pkg/errors"
)

// Tron trail values in the grid.
const (
	TronOpponentTrail = 1
	TronAITrail       = 2
)

// Initial returns a valid state at the start of a match of the given game. Unlike New, which holds
// only decoding defaults, the returned state can be given directly to the AI.
func Initial(game games.ID) (GameState, error) {
	switch game {
	case games.Pong:
		return NewPong(), nil

	case games.TicTacToe:
		return &TicTacToe{Board: make([]Side, 9), Player: "O"}, nil

	case games.ChineseCheckers:
		board := make([]Side, CheckersSize*CheckersSize)
		for ii := range 2 * CheckersSize {
			board[ii] = Red
			board[len(board)-1-ii] = Blue
		}
		return &Checkers{Board: board, Player: "B"}, nil

	case games.Tron:
		const width, height = 40, 30
		grid := make(Grid, height)
		for y := range grid {
			grid[y] = make([]int, width)
		}
		t := &Tron{Grid: grid, AI: Pos{X: 3 * width / 4, Y: height / 2}, Opponent: Pos{X: width / 4, Y: height / 2}}
		grid[t.AI.Y][t.AI.X] = TronAITrail
		grid[t.Opponent.Y][t.Opponent.X] = TronOpponentTrail
		return t, nil

	case games.OffRoad:
		return &OffRoad{
			Vehicle:     Vehicle{X: 100, Y: 300},
			Checkpoints: []Point{{X: 400, Y: 300}, {X: 700, Y: 100}, {X: 700, Y: 500}, {X: 100, Y: 300}},
		}, nil

	case games.PacMan:
		const width, height = 11, 7
		grid := make(Grid, height)
		for y := range grid {
			grid[y] = make([]int, width)
			for x := range grid[y] {
				switch {
				case x == 0 || y == 0 || x == width-1 || y == height-1:
					grid[y][x] = PacManWall
				case x%2 == 0 && y%2 == 0:
					grid[y][x] = PacManWall
				default:
					grid[y][x] = PacManDot
				}
			}
		}
		return &PacMan{
			Grid:   grid,
			PacMan: Pos{X: 1, Y: 1},
			Ghosts: []Ghost{
				{Pos: Pos{X: width - 2, Y: height - 2}, Mode: Chase, Color: "red"},
				{Pos: Pos{X: width - 2, Y: 1}, Mode: Scatter, Color: "pink"},
			},
		}, nil
	}
	return nil, errors.Wrapf(games.ErrUnknown, "game %q", game)
}
