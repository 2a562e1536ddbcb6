package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/recorder"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultMaxMoves of a Chinese Checkers match, after which it is a draw.
const DefaultMaxMoves = 200

// Match played between two AI configurations.
type Match struct {
	Num  int
	Game games.ID

	// Keys of the AI playing as the first and the second side.
	Keys [2]games.Key

	// Winner is None for a draw.
	Winner state.Side
	Reason string

	Moves []json.RawMessage
	Final state.GameState
}

// sideName returns how side is called in game.
func sideName(game games.ID, side state.Side) string {
	names := map[state.Side]string{state.First: "X", state.Second: "O"}
	if game == games.ChineseCheckers {
		names = map[state.Side]string{state.First: "R", state.Second: "B"}
	}
	return names[side]
}

// keyOf returns the key of the AI playing side.
func (m *Match) keyOf(side state.Side) games.Key {
	return m.Keys[side-state.First]
}

// addMove appends move to the sequence of the match, annotated with the side that played it.
func (m *Match) addMove(side state.Side, move state.Move) error {
	data, err := json.Marshal(move)
	if err != nil {
		return errors.Wrapf(err, "encoding move %s", move)
	}
	var annotated map[string]any
	if err := json.Unmarshal(data, &annotated); err != nil {
		return errors.Wrapf(err, "annotating move %s", move)
	}
	annotated["player"] = sideName(m.Game, side)
	annotated["difficulty"] = m.keyOf(side).Difficulty
	data, err = json.Marshal(annotated)
	if err != nil {
		return errors.Wrapf(err, "encoding move %s", move)
	}
	m.Moves = append(m.Moves, data)
	return nil
}

// playMatch plays game between the AI of keys[0], playing first, and the AI of keys[1]. It returns
// a nil match if ctx was canceled.
func playMatch(ctx context.Context, player *players.Player, num int, game games.ID, keys [2]games.Key, maxMoves int) (*Match, error) {
	m := &Match{Num: num, Game: game, Keys: keys}
	var err error
	switch game {
	case games.TicTacToe:
		err = m.playTicTacToe(ctx, player)
	case games.ChineseCheckers:
		err = m.playCheckers(ctx, player, maxMoves)
	default:
		return nil, errors.Wrapf(games.ErrUnknown, "self-play is only supported for %q and %q, not %q",
			games.TicTacToe, games.ChineseCheckers, game)
	}
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	klog.V(1).Infof("Match %d (%s vs %s): winner %s, %s", num, keys[0], keys[1], m.Winner, m.Reason)
	return m, nil
}

func (m *Match) playTicTacToe(ctx context.Context, player *players.Player) error {
	var board [9]state.Side
	side := state.X
	defer func() {
		m.Final = &state.TicTacToe{Board: slices.Clone(board[:]), Player: sideName(m.Game, side)}
	}()
	for ctx.Err() == nil {
		if winner := state.TicTacToeWinner(&board); winner != state.None {
			m.Winner, m.Reason = winner, "three in a row"
			return nil
		}
		if state.TicTacToeFull(&board) {
			m.Reason = "board full"
			return nil
		}
		s := &state.TicTacToe{Board: slices.Clone(board[:]), Player: sideName(m.Game, side)}
		decided, err := player.Decide(ctx, m.keyOf(side), s)
		if err != nil {
			return err
		}
		move := decided.(state.TicTacToeMove)
		if move.IsNone() || board[move.Position] != state.None {
			return errors.Errorf("match %d: %s played the illegal move %s on %s", m.Num, m.keyOf(side), move, state.TicTacToeString(&board))
		}
		board[move.Position] = side
		if err := m.addMove(side, move); err != nil {
			return err
		}
		side = side.Opponent()
	}
	return nil
}

func (m *Match) playCheckers(ctx context.Context, player *players.Player, maxMoves int) error {
	initial, err := state.Initial(games.ChineseCheckers)
	if err != nil {
		return err
	}
	board := *initial.(*state.Checkers).Array()
	side := state.Red
	defer func() {
		m.Final = &state.Checkers{Board: slices.Clone(board[:]), Player: sideName(m.Game, side)}
	}()
	for ctx.Err() == nil {
		if winner := state.CheckersWinner(&board); winner != state.None {
			m.Winner, m.Reason = winner, "reached the goal row"
			return nil
		}
		if len(m.Moves) >= maxMoves {
			m.Reason = fmt.Sprintf("no winner after %d moves", maxMoves)
			return nil
		}
		legal := state.CheckersMoves(&board, side)
		if len(legal) == 0 {
			m.Winner, m.Reason = side.Opponent(), fmt.Sprintf("%s has no moves", sideName(m.Game, side))
			return nil
		}
		s := &state.Checkers{Board: slices.Clone(board[:]), Player: sideName(m.Game, side)}
		decided, err := player.Decide(ctx, m.keyOf(side), s)
		if err != nil {
			return err
		}
		move := decided.(state.CheckersMove)
		isLegal := slices.ContainsFunc(legal, func(l state.CheckersMove) bool { return l.From == move.From && l.To == move.To })
		if !isLegal {
			return errors.Errorf("match %d: %s played the illegal move %s", m.Num, m.keyOf(side), move)
		}
		board = *state.ApplyCheckersMove(&board, move)
		if err := m.addMove(side, move); err != nil {
			return err
		}
		side = side.Opponent()
	}
	return nil
}

// Submission returns the match as if the AI playing side were the user, so it can be recorded as
// training data for the other AI.
func (m *Match) Submission(side state.Side) (recorder.Submission, error) {
	won := m.Winner == side
	score := 0
	if won {
		score = 1
	}
	final, err := m.finalBoardState()
	if err != nil {
		return recorder.Submission{}, err
	}
	var critical []json.RawMessage
	if m.Winner != state.None && len(m.Moves) > 0 {
		critical = append(critical, json.RawMessage(fmt.Sprintf(`{"move_number": %d, "event": %q}`, len(m.Moves), m.Reason)))
	}
	return recorder.Submission{
		GameID: string(m.Game),
		UserID: "selfplay-" + string(m.keyOf(side).Difficulty),
		Score:  score,
		Won:    won,
		Moves:  len(m.Moves),
		GameData: &recorder.GameData{TrainingData: &recorder.TrainingData{
			MovesSequence:   m.Moves,
			FinalBoardState: final,
			PlayerWon:       &won,
			CriticalMoments: critical,
		}},
	}, nil
}

// finalBoardState encodes the final board the way game clients send it: TicTacToe cells are
// "X", "O" or null.
func (m *Match) finalBoardState() (json.RawMessage, error) {
	var value any = m.Final
	if ttt, ok := m.Final.(*state.TicTacToe); ok {
		cells := make([]*string, len(ttt.Board))
		for ii, cell := range ttt.Board {
			if cell != state.None {
				name := sideName(m.Game, cell)
				cells[ii] = &name
			}
		}
		value = map[string]any{"board": cells}
	}
	data, err := json.Marshal(value)
	return data, errors.Wrap(err, "encoding final board")
}
