package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/recorder"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/janpfeifer/arcadeai/internal/ui/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tttExpert = games.Key{Game: games.TicTacToe, Difficulty: games.Expert}

func TestPlayTicTacToeExpertsDraw(t *testing.T) {
	player := players.New(nil).WithSeed(1, 2)
	m, err := playMatch(context.Background(), player, 0, games.TicTacToe, [2]games.Key{tttExpert, tttExpert}, DefaultMaxMoves)
	require.NoError(t, err)
	assert.Equal(t, state.None, m.Winner)
	assert.Equal(t, "board full", m.Reason)
	assert.Len(t, m.Moves, 9)

	var first map[string]any
	require.NoError(t, json.Unmarshal(m.Moves[0], &first))
	assert.Equal(t, "X", first["player"])
	assert.Equal(t, "expert", first["difficulty"])

	sub, err := m.Submission(state.O)
	require.NoError(t, err)
	require.NoError(t, sub.Validate())
	assert.False(t, sub.Won)
	assert.Equal(t, 9, sub.Moves)
	var final struct {
		Board []*string `json:"board"`
	}
	require.NoError(t, json.Unmarshal(sub.GameData.TrainingData.FinalBoardState, &final))
	require.Len(t, final.Board, 9)
	for _, cell := range final.Board {
		require.NotNil(t, cell)
	}
	assert.Empty(t, sub.GameData.TrainingData.CriticalMoments)
}

func TestPlayTicTacToeWinner(t *testing.T) {
	// The expert never loses, whatever the easy AI plays.
	player := players.New(nil).WithSeed(3, 4)
	tttEasy := games.Key{Game: games.TicTacToe, Difficulty: games.Easy}
	for num := range 10 {
		m, err := playMatch(context.Background(), player, num, games.TicTacToe, [2]games.Key{tttEasy, tttExpert}, DefaultMaxMoves)
		require.NoError(t, err)
		assert.NotEqual(t, state.X, m.Winner, "expert playing O lost match %d", num)
		if m.Winner == state.O {
			sub, err := m.Submission(state.O)
			require.NoError(t, err)
			assert.True(t, sub.Won)
			assert.Equal(t, 1, sub.Score)
			assert.Len(t, sub.GameData.TrainingData.CriticalMoments, 1)
		}
	}
}

func TestPlayCheckers(t *testing.T) {
	player := players.New(nil).WithSeed(5, 6)
	easy := games.Key{Game: games.ChineseCheckers, Difficulty: games.Easy}
	m, err := playMatch(context.Background(), player, 0, games.ChineseCheckers, [2]games.Key{easy, easy}, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(m.Moves), 10)
	require.NotNil(t, m.Final)
	require.NoError(t, m.Final.Validate())
	if m.Winner == state.None {
		assert.Equal(t, "no winner after 10 moves", m.Reason)
	}
	sub, err := m.Submission(state.Blue)
	require.NoError(t, err)
	assert.Equal(t, "chinese_checkers", sub.GameID)
	assert.Contains(t, string(sub.GameData.TrainingData.FinalBoardState), `"board"`)
}

func TestPlayMatchErrors(t *testing.T) {
	player := players.New(nil)
	pong := games.Key{Game: games.Pong, Difficulty: games.Easy}
	_, err := playMatch(context.Background(), player, 0, games.Pong, [2]games.Key{pong, pong}, DefaultMaxMoves)
	require.ErrorIs(t, err, games.ErrUnknown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := playMatch(ctx, player, 0, games.TicTacToe, [2]games.Key{tttExpert, tttExpert}, DefaultMaxMoves)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestComparisonRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	var buf bytes.Buffer
	c := &comparison{
		player:   players.New(nil).WithSeed(7, 8),
		game:     games.TicTacToe,
		keys:     [2]games.Key{tttExpert, tttExpert},
		maxMoves: DefaultMaxMoves,
		recorder: recorder.New(store),
		ui:       cli.NewWithWriter(&buf),
		print:    true,
	}
	results, err := c.run(ctx, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, results.played)
	assert.Equal(t, 4, results.recorded)
	assert.Equal(t, 4, results.draws)
	rows := results.rows(c.keys)
	assert.Equal(t, []string{"tictactoe/expert", "0", "0", "0", "4", "0"}, rows[0])
	assert.Contains(t, buf.String(), "DRAW: board full")

	matches, err := store.RecentMatches(ctx, games.TicTacToe, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 4)
	for _, match := range matches {
		assert.False(t, match.PlayerWon)
		assert.Equal(t, 9, match.TotalMoves)
	}
}
