package recorder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestRecorder(t *testing.T) (*Recorder, storage.Store) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	return New(store).WithClock(func() time.Time { return now }), store
}

func decodeSubmission(t *testing.T, data string) Submission {
	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(data), &sub))
	return sub
}

func TestRecordMatchWithoutTrainingData(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRecorder(t)
	receipt, err := r.RecordMatch(ctx, decodeSubmission(t,
		`{"game_id": "pong", "score": 7, "won": true, "moves": 120, "duration_seconds": 95}`))
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.SessionID)
	assert.Empty(t, receipt.MatchID)

	sessions, err := store.ListSessions(ctx, games.Pong, time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, storage.Session{
		ID: receipt.SessionID, GameID: games.Pong, Score: 7, Won: true, Moves: 120, DurationSeconds: 95, CreatedAt: now,
	}, sessions[0])

	matches, err := store.RecentMatches(ctx, games.Pong, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRecordMatchWithTrainingData(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRecorder(t)
	receipt, err := r.RecordMatch(ctx, decodeSubmission(t, `{
		"game_id": "tictactoe", "user_id": "u1", "score": 0, "won": true, "moves": 3, "duration_seconds": 20,
		"game_data": {"training_data": {
			"moves_sequence": [{"cell":4}, {"cell":0}, {"cell":8}],
			"final_board_state": {"board":["O","",""]},
			"critical_moments": ["fork"]
		}}}`))
	require.NoError(t, err)
	require.NotEmpty(t, receipt.MatchID)

	matches, err := store.RecentMatches(ctx, games.TicTacToe, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	match := matches[0]
	assert.Equal(t, receipt.MatchID, match.ID)
	assert.Equal(t, receipt.SessionID, match.SessionID)
	assert.True(t, match.PlayerWon, "player_won defaults to won")
	assert.Equal(t, 3, match.TotalMoves)
	assert.Equal(t, 20, match.DurationSeconds)
	assert.JSONEq(t, `{"cell":8}`, string(match.MovesSequence[2]))
	assert.JSONEq(t, `{"board":["O","",""]}`, string(match.FinalState))
	require.Len(t, match.CriticalMoments, 1)

	// An explicit player_won overrides won.
	receipt, err = r.RecordMatch(ctx, decodeSubmission(t, `{
		"game_id": "tictactoe", "won": true, "moves": 1, "duration_seconds": 5,
		"game_data": {"training_data": {"moves_sequence": [], "player_won": false}}}`))
	require.NoError(t, err)
	matches, err = store.RecentMatches(ctx, games.TicTacToe, time.Time{}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, receipt.MatchID, matches[0].ID)
	assert.False(t, matches[0].PlayerWon)
	assert.Equal(t, 0, matches[0].TotalMoves)
}

func TestRecordMatchValidation(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRecorder(t)
	_, err := r.RecordMatch(ctx, Submission{GameID: "spaceinvaders"})
	require.ErrorIs(t, err, games.ErrUnknown)
	_, err = r.RecordMatch(ctx, Submission{GameID: "tron", Moves: -1})
	require.ErrorIs(t, err, ErrInvalid)
	_, err = r.RecordMatch(ctx, Submission{GameID: "tron", DurationSeconds: -3})
	require.ErrorIs(t, err, ErrInvalid)

	sessions, err := store.ListSessions(ctx, "", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

// failingMatches can save sessions but not matches.
type failingMatches struct {
	storage.Store
}

func (failingMatches) SaveMatch(context.Context, storage.MatchRecord) error {
	return errors.New("disk full")
}

func TestRecordMatchKeepsSessionOnTrainingDataFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	r := New(failingMatches{store})
	receipt, err := r.RecordMatch(ctx, Submission{
		GameID:   "pacman",
		GameData: &GameData{TrainingData: &TrainingData{MovesSequence: []json.RawMessage{json.RawMessage(`1`)}}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.SessionID)
	assert.Empty(t, receipt.MatchID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	clock := now.Add(-10 * 24 * time.Hour)
	r := New(store).WithClock(func() time.Time { return clock })

	record := func(game string, won, training bool) {
		sub := Submission{GameID: game, Won: won}
		if training {
			sub.GameData = &GameData{TrainingData: &TrainingData{}}
		}
		_, err := r.RecordMatch(ctx, sub)
		require.NoError(t, err)
	}
	// Old matches.
	record("pong", true, true)
	record("pong", false, false)
	// Recent ones.
	clock = now
	record("pong", false, true)
	record("pong", false, true)
	record("tron", true, true)

	stats, err := r.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Sessions)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.PlayerWins)
	assert.Equal(t, 2, stats.AIWins)
	assert.InDelta(t, 0.5, stats.WinRate, 1e-9)
	assert.Equal(t, 3, stats.Recent)
	assert.Equal(t, map[games.ID]int{games.Pong: 3, games.Tron: 1}, stats.ByGame)

	stats, err = r.Stats(ctx, games.Pong)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Sessions)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.PlayerWins)
	assert.Equal(t, 2, stats.Recent)
	assert.Nil(t, stats.ByGame)

	stats, err = r.Stats(ctx, games.PacMan)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.WinRate)

	_, err = r.Stats(ctx, "chess")
	require.ErrorIs(t, err, games.ErrUnknown)
}
