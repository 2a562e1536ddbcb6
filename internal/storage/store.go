// Package storage persists the versioned AI parameters, their history, and the recorded game sessions
// and matches.
//
// Two backends are provided: an in-memory one (the default) and SQLite, which is only compiled with
// the "sqlite" build tag. See NewStore.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/pkg/errors"
)

var (
	// ErrConflict is returned by Store.CommitActive when the active version is not the expected one.
	ErrConflict = errors.New("parameters version conflict")

	// ErrNotInitialized is returned when a Store is used before Init.
	ErrNotInitialized = errors.New("store is not initialized")
)

// Reason of a parameters change, recorded in the history.
type Reason string

const (
	ReasonTrained             Reason = "trained"
	ReasonManual              Reason = "manual"
	ReasonRollback            Reason = "rollback"
	ReasonRollbackPreSnapshot Reason = "rollback_pre_snapshot"
	ReasonSeed                Reason = "seed"
)

// Valid returns whether r is one of the known reasons.
func (r Reason) Valid() bool {
	switch r {
	case ReasonTrained, ReasonManual, ReasonRollback, ReasonRollbackPreSnapshot, ReasonSeed:
		return true
	}
	return false
}

// Metrics is optional metadata attached to a history entry, e.g. matches_analyzed or run_id.
type Metrics map[string]any

// Clone returns a shallow copy of m.
func (m Metrics) Clone() Metrics {
	if m == nil {
		return nil
	}
	c := make(Metrics, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// ActiveRow holds the parameters currently used by the AI for a key.
type ActiveRow struct {
	Key       games.Key         `json:"key"`
	Version   int               `json:"version"`
	Params    parameters.Params `json:"params"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the row.
func (r ActiveRow) Clone() ActiveRow {
	r.Params = r.Params.Clone()
	return r
}

// HistoryEntry is an append-only snapshot of the parameters of a key at some version.
type HistoryEntry struct {
	ID      string            `json:"id"`
	Key     games.Key         `json:"key"`
	Version int               `json:"version"`
	Params  parameters.Params `json:"params"`
	Reason  Reason            `json:"reason"`

	// PreviousVersion is 0 if there is none.
	PreviousVersion int       `json:"previous_version,omitempty"`
	Metrics         Metrics   `json:"metrics,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Clone returns a deep copy of the entry.
func (e HistoryEntry) Clone() HistoryEntry {
	e.Params = e.Params.Clone()
	e.Metrics = e.Metrics.Clone()
	return e
}

// Session is the score record of one played match. One is stored for every submitted match.
type Session struct {
	ID              string    `json:"id"`
	GameID          games.ID  `json:"game_id"`
	UserID          string    `json:"user_id,omitempty"`
	Score           int       `json:"score"`
	Won             bool      `json:"won"`
	Moves           int       `json:"moves"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchRecord is the immutable training record of a match. It is only stored when the client
// submitted training data.
type MatchRecord struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"session_id"`
	GameID          games.ID          `json:"game_id"`
	PlayerWon       bool              `json:"player_won"`
	Score           int               `json:"score"`
	TotalMoves      int               `json:"total_moves"`
	DurationSeconds int               `json:"duration_seconds"`
	MovesSequence   []json.RawMessage `json:"moves_sequence"`
	FinalState      json.RawMessage   `json:"final_board_state,omitempty"`
	CriticalMoments []json.RawMessage `json:"critical_moments,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Store defines the persistence operations. Implementations are safe for concurrent use.
type Store interface {
	Init(ctx context.Context) error

	// GetActive returns the active row of key, and false if the key was never materialized.
	GetActive(ctx context.Context, key games.Key) (ActiveRow, bool, error)

	// ListActive returns every active row, ordered by game and difficulty.
	ListActive(ctx context.Context) ([]ActiveRow, error)

	// CommitActive atomically appends the history entries and installs row as the active row of
	// row.Key, provided the current active version is expectedVersion (0 if there is no active row).
	// Otherwise, it changes nothing and returns an error wrapping ErrConflict.
	CommitActive(ctx context.Context, expectedVersion int, row ActiveRow, entries ...HistoryEntry) error

	// History returns up to limit entries of key, newest first.
	History(ctx context.Context, key games.Key, limit int) ([]HistoryEntry, error)

	// FindVersion returns the newest history entry of key with the given version.
	FindVersion(ctx context.Context, key games.Key, version int) (HistoryEntry, bool, error)

	SaveSession(ctx context.Context, session Session) error

	// ListSessions returns the sessions of game (or of all games, if game is empty) created at or after since,
	// newest first.
	ListSessions(ctx context.Context, game games.ID, since time.Time) ([]Session, error)

	SaveMatch(ctx context.Context, match MatchRecord) error

	// RecentMatches returns up to limit match records of game created at or after since, newest first.
	RecentMatches(ctx context.Context, game games.ID, since time.Time, limit int) ([]MatchRecord, error)
}

func conflictf(key games.Key, expected, current int) error {
	return errors.Wrapf(ErrConflict, "%s: expected active version %d, found %d", key, expected, current)
}
