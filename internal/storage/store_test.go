package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pongMedium = games.Key{Game: games.Pong, Difficulty: games.Medium}
	tttEasy    = games.Key{Game: games.TicTacToe, Difficulty: games.Easy}
	baseTime   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func historyEntry(key games.Key, version int, reason Reason, params parameters.Params) HistoryEntry {
	previous := version - 1
	if previous < 1 {
		previous = 0
	}
	return HistoryEntry{
		ID:              fmt.Sprintf("%s-%d-%s", key, version, reason),
		Key:             key,
		Version:         version,
		Params:          params,
		Reason:          reason,
		PreviousVersion: previous,
		CreatedAt:       baseTime.Add(time.Duration(version) * time.Minute),
	}
}

// testStore runs the behavior every Store implementation must have. newStore must return an
// initialized store.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Active", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, found, err := s.GetActive(ctx, pongMedium)
		require.NoError(t, err)
		assert.False(t, found)

		v1 := ActiveRow{Key: pongMedium, Version: 1, Params: parameters.Params{"base_error": 20.0}, UpdatedAt: baseTime}
		require.NoError(t, s.CommitActive(ctx, 0, v1, historyEntry(pongMedium, 1, ReasonSeed, v1.Params)))

		v2 := ActiveRow{
			Key:       pongMedium,
			Version:   2,
			Params:    parameters.Params{"base_error": 15.5, "strategy": "balanced"},
			UpdatedAt: baseTime.Add(time.Hour),
		}
		entry := historyEntry(pongMedium, 1, ReasonTrained, v1.Params)
		entry.Metrics = Metrics{"matches_analyzed": 15.0, "run_id": "abc"}
		require.NoError(t, s.CommitActive(ctx, 1, v2, entry))

		got, found, err := s.GetActive(ctx, pongMedium)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, v2, got)

		// Stale writer.
		err = s.CommitActive(ctx, 1, ActiveRow{Key: pongMedium, Version: 2, Params: v1.Params, UpdatedAt: baseTime})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConflict))
		got, _, err = s.GetActive(ctx, pongMedium)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)

		// Writing a key that doesn't exist with a non-zero version also conflicts.
		err = s.CommitActive(ctx, 3, ActiveRow{Key: tttEasy, Version: 4, Params: v1.Params, UpdatedAt: baseTime})
		assert.True(t, errors.Is(err, ErrConflict))

		history, err := s.History(ctx, pongMedium, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, ReasonTrained, history[0].Reason)
		assert.Equal(t, Metrics{"matches_analyzed": 15.0, "run_id": "abc"}, history[0].Metrics)
		assert.Equal(t, ReasonSeed, history[1].Reason)
		assert.Equal(t, entry, history[0])

		history, err = s.History(ctx, pongMedium, 1)
		require.NoError(t, err)
		assert.Len(t, history, 1)
		history, err = s.History(ctx, tttEasy, 10)
		require.NoError(t, err)
		assert.Empty(t, history)

		// Both entries have version 1: the newest one is returned.
		found1, found, err := s.FindVersion(ctx, pongMedium, 1)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ReasonTrained, found1.Reason)
		_, found, err = s.FindVersion(ctx, pongMedium, 7)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ListActive", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for _, key := range []games.Key{tttEasy, pongMedium} {
			row := ActiveRow{Key: key, Version: 1, Params: parameters.Params{"x": 1.0}, UpdatedAt: baseTime}
			require.NoError(t, s.CommitActive(ctx, 0, row))
		}
		rows, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		// Ordered by game, then difficulty.
		assert.Equal(t, pongMedium, rows[0].Key)
		assert.Equal(t, tttEasy, rows[1].Key)
	})

	t.Run("Sessions", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for ii, game := range []games.ID{games.Pong, games.Tron, games.Pong} {
			require.NoError(t, s.SaveSession(ctx, Session{
				ID:        fmt.Sprintf("s%d", ii),
				GameID:    game,
				Score:     ii * 10,
				Won:       ii%2 == 0,
				Moves:     ii + 1,
				CreatedAt: baseTime.Add(time.Duration(ii) * time.Hour),
			}))
		}
		all, err := s.ListSessions(ctx, "", time.Time{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "s2", all[0].ID)
		assert.Equal(t, "s0", all[2].ID)
		assert.True(t, all[0].Won)
		assert.False(t, all[1].Won)

		pong, err := s.ListSessions(ctx, games.Pong, baseTime.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, pong, 1)
		assert.Equal(t, "s2", pong[0].ID)
		assert.Equal(t, 20, pong[0].Score)
	})

	t.Run("Matches", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for ii := range 5 {
			require.NoError(t, s.SaveMatch(ctx, MatchRecord{
				ID:            fmt.Sprintf("m%d", ii),
				SessionID:     fmt.Sprintf("s%d", ii),
				GameID:        games.TicTacToe,
				PlayerWon:     ii == 3,
				TotalMoves:    2,
				MovesSequence: []json.RawMessage{json.RawMessage(`{"cell":4}`), json.RawMessage(`{"cell":0}`)},
				FinalState:    json.RawMessage(`["X","O",null]`),
				CreatedAt:     baseTime.Add(time.Duration(ii) * time.Hour),
			}))
		}
		require.NoError(t, s.SaveMatch(ctx, MatchRecord{ID: "other", GameID: games.Pong, CreatedAt: baseTime}))

		matches, err := s.RecentMatches(ctx, games.TicTacToe, baseTime.Add(time.Hour), 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "m4", matches[0].ID)
		assert.Equal(t, "m3", matches[1].ID)
		assert.True(t, matches[1].PlayerWon)
		assert.Equal(t, "m2", matches[2].ID)
		assert.Equal(t, `{"cell":4}`, string(matches[0].MovesSequence[0]))
		assert.Equal(t, `["X","O",null]`, string(matches[0].FinalState))
		assert.Nil(t, matches[0].CriticalMoments)

		matches, err = s.RecentMatches(ctx, games.Pong, time.Time{}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "other", matches[0].ID)
	})
}
