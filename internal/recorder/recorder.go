// Package recorder stores the outcome of played matches and, when the client collected it, the
// training data consumed by the trainer.
package recorder

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrInvalid is returned (wrapped) for malformed submissions.
var ErrInvalid = errors.New("invalid match submission")

// RecentWindow is the window of Stats.Recent.
const RecentWindow = 7 * 24 * time.Hour

// Submission of a finished match, as sent by the game client.
type Submission struct {
	GameID          string    `json:"game_id"`
	UserID          string    `json:"user_id,omitempty"`
	Score           int       `json:"score"`
	Won             bool      `json:"won"`
	Moves           int       `json:"moves"`
	DurationSeconds int       `json:"duration_seconds"`
	GameData        *GameData `json:"game_data,omitempty"`
}

// GameData is free-form data of the match. Only the training data is used.
type GameData struct {
	TrainingData *TrainingData `json:"training_data,omitempty"`
}

// TrainingData collected by the client during the match.
type TrainingData struct {
	MovesSequence   []json.RawMessage `json:"moves_sequence"`
	FinalBoardState json.RawMessage   `json:"final_board_state,omitempty"`

	// PlayerWon defaults to Submission.Won.
	PlayerWon       *bool             `json:"player_won,omitempty"`
	CriticalMoments []json.RawMessage `json:"critical_moments,omitempty"`
}

// Receipt of a recorded match.
type Receipt struct {
	SessionID string

	// MatchID is empty if no training data was stored.
	MatchID string
}

// Recorder of matches. It is safe for concurrent use.
type Recorder struct {
	store storage.Store
	now   func() time.Time
}

// New returns a Recorder that saves into store, which must be initialized.
func New(store storage.Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// WithClock sets the function used to timestamp records.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Validate returns an error wrapping ErrInvalid (or games.ErrUnknown, for the game) if the submission
// is malformed.
func (s *Submission) Validate() error {
	if _, err := games.ParseID(s.GameID); err != nil {
		return err
	}
	if s.Moves < 0 {
		return errors.Wrapf(ErrInvalid, "negative number of moves %d", s.Moves)
	}
	if s.DurationSeconds < 0 {
		return errors.Wrapf(ErrInvalid, "negative duration %ds", s.DurationSeconds)
	}
	return nil
}

// RecordMatch always stores a session for the submitted match. If it carries training data, a match
// record for the trainer is stored as well: failing to do so is logged, but doesn't fail the
// submission.
func (r *Recorder) RecordMatch(ctx context.Context, sub Submission) (*Receipt, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	gameID, _ := games.ParseID(sub.GameID)
	now := r.now()
	session := storage.Session{
		ID:              uuid.NewString(),
		GameID:          gameID,
		UserID:          sub.UserID,
		Score:           sub.Score,
		Won:             sub.Won,
		Moves:           sub.Moves,
		DurationSeconds: sub.DurationSeconds,
		CreatedAt:       now,
	}
	if err := r.store.SaveSession(ctx, session); err != nil {
		return nil, errors.WithMessagef(err, "recording %s session", sub.GameID)
	}
	receipt := &Receipt{SessionID: session.ID}
	if sub.GameData == nil || sub.GameData.TrainingData == nil {
		klog.V(2).Infof("Recorded %s session %s without training data", session.GameID, session.ID)
		return receipt, nil
	}

	data := sub.GameData.TrainingData
	match := storage.MatchRecord{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		GameID:          session.GameID,
		PlayerWon:       sub.Won,
		Score:           sub.Score,
		TotalMoves:      len(data.MovesSequence),
		DurationSeconds: sub.DurationSeconds,
		MovesSequence:   data.MovesSequence,
		FinalState:      data.FinalBoardState,
		CriticalMoments: data.CriticalMoments,
		CreatedAt:       now,
	}
	if data.PlayerWon != nil {
		match.PlayerWon = *data.PlayerWon
	}
	if err := r.store.SaveMatch(ctx, match); err != nil {
		klog.Warningf("Training data of %s session %s not saved: %+v", session.GameID, session.ID, err)
		return receipt, nil
	}
	receipt.MatchID = match.ID
	klog.V(1).Infof("Recorded %s session %s with %d moves of training data", session.GameID, session.ID, match.TotalMoves)
	return receipt, nil
}

// Stats of the recorded training data.
type Stats struct {
	// Sessions counts every recorded match, with or without training data.
	Sessions int `json:"sessions"`

	// Total counts the matches with training data.
	Total      int     `json:"total_games"`
	PlayerWins int     `json:"player_wins"`
	AIWins     int     `json:"ai_wins"`
	WinRate    float64 `json:"win_rate"`

	// Recent counts the matches with training data in the last RecentWindow.
	Recent int `json:"recent_games_7d"`

	// ByGame counts the matches with training data per game. Only filled when Stats is called for
	// all games.
	ByGame map[games.ID]int `json:"by_game,omitempty"`
}

// Stats returns statistics of the training data of game, or of all games if game is empty.
func (r *Recorder) Stats(ctx context.Context, game games.ID) (*Stats, error) {
	gameIDs := games.All()
	if game != "" {
		if !game.Valid() {
			return nil, errors.Wrapf(games.ErrUnknown, "game %q", game)
		}
		gameIDs = []games.ID{game}
	}
	sessions, err := r.store.ListSessions(ctx, game, time.Time{})
	if err != nil {
		return nil, errors.WithMessage(err, "listing sessions")
	}
	stats := &Stats{Sessions: len(sessions)}
	if game == "" {
		stats.ByGame = make(map[games.ID]int)
	}
	recentStart := r.now().Add(-RecentWindow)
	for _, id := range gameIDs {
		matches, err := r.store.RecentMatches(ctx, id, time.Time{}, math.MaxInt32)
		if err != nil {
			return nil, errors.WithMessagef(err, "listing %s matches", id)
		}
		for _, match := range matches {
			stats.Total++
			if match.PlayerWon {
				stats.PlayerWins++
			}
			if match.CreatedAt.After(recentStart) {
				stats.Recent++
			}
		}
		if stats.ByGame != nil && len(matches) > 0 {
			stats.ByGame[id] = len(matches)
		}
	}
	stats.AIWins = stats.Total - stats.PlayerWins
	if stats.Total > 0 {
		stats.WinRate = float64(stats.PlayerWins) / float64(stats.Total)
	}
	return stats, nil
}
