// Package trainer tunes the parameters of the game AIs offline, from recorded matches.
//
// Each match of a batch is described to an oracle (a language model) that suggests parameter
// adjustments. The suggestions are averaged and blended with the current parameters (see
// SmoothingAlpha) into a new version of the parameters.
package trainer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/oracle"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/paramstore"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

const (
	// MinMatches needed to train: fewer would overfit to a few matches.
	MinMatches = 10

	// MinSuggestions that must be parsed from the oracle responses to update the parameters.
	MinSuggestions = 5

	DefaultBatchSize   = 50
	MaxBatchSize       = 100
	DefaultWindow      = 7 * 24 * time.Hour
	DefaultCallTimeout = 2 * time.Minute
	DefaultParallelism = 4
)

// MatchSource provides the recorded matches, newest first. storage.Store implements it.
type MatchSource interface {
	RecentMatches(ctx context.Context, game games.ID, since time.Time, limit int) ([]storage.MatchRecord, error)
}

// ParamsStore reads and updates the versioned parameters. *paramstore.Store implements it.
type ParamsStore interface {
	GetActive(ctx context.Context, key games.Key) (paramstore.Version, error)
	SetActiveIfVersion(ctx context.Context, key games.Key, expectedVersion int, params parameters.Params,
		reason storage.Reason, metrics storage.Metrics) (int, error)
}

var _ ParamsStore = (*paramstore.Store)(nil)

// Trainer of the game AI parameters. It is safe to run several trainings concurrently: if two of
// them update the same key, the later one fails with StatusUpdateFailed.
type Trainer struct {
	matches     MatchSource
	params      ParamsStore
	oracle      oracle.Oracle
	window      time.Duration
	callTimeout time.Duration
	parallelism int
	now         func() time.Time
	progress    func(done, total int)
}

// New creates a Trainer. Use the With* methods to configure it.
func New(matches MatchSource, params ParamsStore, o oracle.Oracle) *Trainer {
	return &Trainer{
		matches:     matches,
		params:      params,
		oracle:      o,
		window:      DefaultWindow,
		callTimeout: DefaultCallTimeout,
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
}

// WithWindow sets how old the matches used for training can be.
func (t *Trainer) WithWindow(window time.Duration) *Trainer {
	t.window = window
	return t
}

// WithCallTimeout sets the timeout of each oracle call.
func (t *Trainer) WithCallTimeout(timeout time.Duration) *Trainer {
	t.callTimeout = timeout
	return t
}

// WithParallelism sets the maximum number of concurrent oracle calls.
func (t *Trainer) WithParallelism(parallelism int) *Trainer {
	t.parallelism = max(parallelism, 1)
	return t
}

// WithClock sets the function used to select recent matches and timestamp the runs.
func (t *Trainer) WithClock(now func() time.Time) *Trainer {
	t.now = now
	return t
}

// WithProgress sets a function called after each oracle call, with the number of matches analyzed so
// far and the total. Calls are serialized.
func (t *Trainer) WithProgress(progress func(done, total int)) *Trainer {
	t.progress = progress
	return t
}

// Train runs one training of the parameters of key, over up to batchSize recent matches
// (DefaultBatchSize if batchSize <= 0, and at most MaxBatchSize).
//
// Expected failures, like too few matches or too few suggestions, are reported in the Outcome
// status, with a nil error. An error is returned for invalid arguments, failures reading the store
// and, along with StatusUpdateFailed, failures updating the parameters.
//
// If ctx is canceled during the oracle calls, the Outcome has StatusCanceled and the suggestions
// parsed so far.
func (t *Trainer) Train(ctx context.Context, key games.Key, batchSize int) (*Outcome, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	schema, err := parameters.SchemaFor(key.Game)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batchSize = min(batchSize, MaxBatchSize)

	startTime := t.now()
	outcome := &Outcome{RunID: uuid.NewString(), Key: key}
	matches, err := t.matches.RecentMatches(ctx, key.Game, startTime.Add(-t.window), batchSize)
	if err != nil {
		return nil, errors.WithMessagef(err, "selecting matches to train %s", key)
	}
	outcome.MatchCount = len(matches)
	if len(matches) < MinMatches {
		outcome.Status = StatusInsufficientData
		outcome.Message = fmt.Sprintf("at least %d matches are needed, only %d played since %s",
			MinMatches, len(matches), humanize.Time(startTime.Add(-t.window)))
		klog.Infof("Training %s (run %s): %s", key, outcome.RunID, outcome.Message)
		return outcome, nil
	}

	current, err := t.params.GetActive(ctx, key)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading current parameters of %s", key)
	}
	outcome.OldParams = current.Params

	suggestions := t.analyze(ctx, key, schema, current.Params, matches)
	for _, s := range suggestions {
		if s != nil {
			outcome.Suggestions = append(outcome.Suggestions, s)
		}
	}
	outcome.Parsed = len(outcome.Suggestions)
	outcome.Dropped = outcome.MatchCount - outcome.Parsed

	if ctx.Err() != nil {
		outcome.Status = StatusCanceled
		outcome.Message = fmt.Sprintf("canceled after parsing %d suggestions: %v", outcome.Parsed, context.Cause(ctx))
		klog.Warningf("Training %s (run %s): %s", key, outcome.RunID, outcome.Message)
		return outcome, nil
	}
	if outcome.Parsed < MinSuggestions {
		outcome.Status = StatusAnalysisFailed
		outcome.Message = fmt.Sprintf("only %d of %d matches were analyzed, at least %d are needed",
			outcome.Parsed, outcome.MatchCount, MinSuggestions)
		klog.Warningf("Training %s (run %s): %s", key, outcome.RunID, outcome.Message)
		return outcome, nil
	}

	outcome.NewParams, outcome.UnknownKeys = Aggregate(schema, current.Params, outcome.Suggestions)
	metrics := storage.Metrics{
		"matches_analyzed":   outcome.MatchCount,
		"suggestions_parsed": outcome.Parsed,
		"training_date":      t.now().UTC().Format(time.RFC3339),
		"run_id":             outcome.RunID,
	}
	version, err := t.params.SetActiveIfVersion(ctx, key, current.Version, outcome.NewParams, storage.ReasonTrained, metrics)
	if err != nil {
		outcome.Status = StatusUpdateFailed
		outcome.Message = fmt.Sprintf("failed to update parameters: %v", err)
		klog.Errorf("Training %s (run %s): %+v", key, outcome.RunID, err)
		return outcome, errors.WithMessagef(err, "training %s", key)
	}
	outcome.Status = StatusSuccess
	outcome.Version = version
	outcome.Message = fmt.Sprintf("trained with %d suggestions from %d matches in %s",
		outcome.Parsed, outcome.MatchCount, t.now().Sub(startTime).Round(time.Millisecond))
	klog.Infof("Training %s (run %s): version %d %s", key, outcome.RunID, version, outcome.Message)
	return outcome, nil
}

// analyze asks the oracle for a suggestion for each match, concurrently. The returned slice is
// aligned with matches, with nil for the matches without a valid suggestion.
func (t *Trainer) analyze(ctx context.Context, key games.Key, schema parameters.Schema, current parameters.Params,
	matches []storage.MatchRecord) []*Suggestion {
	suggestions := make([]*Suggestion, len(matches))
	var g errgroup.Group
	g.SetLimit(t.parallelism)
	var (
		muDone sync.Mutex
		done   int
	)
	for ii, match := range matches {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			s, err := t.analyzeMatch(ctx, match, schema, current)
			if err != nil {
				klog.Warningf("Training %s: dropping match %s: %v", key, match.ID, err)
			} else {
				suggestions[ii] = s
				klog.V(1).Infof("Training %s: match %s: patterns=%q weaknesses=%q adjustments={%s} reasoning=%q",
					key, match.ID, s.PlayerPatterns, s.AIWeaknesses, s.SuggestedAdjustments, s.Reasoning)
			}
			muDone.Lock()
			done++
			if t.progress != nil {
				t.progress(done, len(matches))
			}
			muDone.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return suggestions
}

func (t *Trainer) analyzeMatch(ctx context.Context, match storage.MatchRecord, schema parameters.Schema,
	current parameters.Params) (*Suggestion, error) {
	prompt, err := BuildPrompt(match, schema, current)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
	defer cancel()
	response, err := t.oracle.Suggest(callCtx, prompt)
	if err != nil {
		return nil, errors.WithMessage(err, "oracle failed")
	}
	return ParseSuggestion(response)
}
