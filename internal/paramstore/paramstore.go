// Package paramstore implements the versioned parameters of the game AIs on top of a storage.Store.
//
// Each game and difficulty (a games.Key) has at most one active version. Until it is first changed the
// built-in defaults are served, at version 0. Every change archives the previous snapshot in an
// append-only history and installs a new, higher, version. Rollbacks also create new versions.
package paramstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/players"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrNotFound is returned when rolling back to a version that is not in the history.
	ErrNotFound = errors.New("parameters version not found")

	// ErrConflict is returned when the active version changed concurrently. It is the same
	// error as storage.ErrConflict.
	ErrConflict = storage.ErrConflict
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// AnyVersion can be given to SetActiveIfVersion to accept any active version.
const AnyVersion = -1

// Version is the active parameters of a key.
type Version struct {
	Key     games.Key
	Version int
	Params  parameters.Params

	// UpdatedAt is zero for the built-in defaults.
	UpdatedAt time.Time
}

// IsDefault returns whether these are the built-in defaults, never stored.
func (v Version) IsDefault() bool { return v.Version == 0 }

// Store of versioned parameters. It is safe for concurrent use.
type Store struct {
	backend storage.Store
	now     func() time.Time

	muKeys   sync.Mutex
	keyLocks map[games.Key]*sync.Mutex
}

var _ players.ParamsSource = (*Store)(nil)

// New creates a Store over an initialized backend. It fails if the built-in defaults are not valid.
func New(backend storage.Store) (*Store, error) {
	if err := parameters.ValidateDefaults(); err != nil {
		return nil, errors.WithMessage(err, "invalid built-in parameters")
	}
	return &Store{
		backend:  backend,
		now:      time.Now,
		keyLocks: make(map[games.Key]*sync.Mutex),
	}, nil
}

// WithClock sets the function used to timestamp changes. Mostly for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Backend returns the underlying storage.
func (s *Store) Backend() storage.Store { return s.backend }

// lockKey serializes the writers of key. It returns the unlock function.
func (s *Store) lockKey(key games.Key) func() {
	s.muKeys.Lock()
	mu, found := s.keyLocks[key]
	if !found {
		mu = &sync.Mutex{}
		s.keyLocks[key] = mu
	}
	s.muKeys.Unlock()
	mu.Lock()
	return mu.Unlock
}

// GetActive returns the active parameters of key, or the built-in defaults at version 0 if they were
// never changed.
func (s *Store) GetActive(ctx context.Context, key games.Key) (Version, error) {
	if err := key.Validate(); err != nil {
		return Version{}, err
	}
	row, found, err := s.backend.GetActive(ctx, key)
	if err != nil {
		return Version{}, errors.WithMessagef(err, "reading active parameters of %s", key)
	}
	if found {
		return Version{Key: key, Version: row.Version, Params: row.Params, UpdatedAt: row.UpdatedAt}, nil
	}
	params, err := parameters.Default(key)
	if err != nil {
		return Version{}, err
	}
	return Version{Key: key, Params: params}, nil
}

// ActiveParams implements players.ParamsSource.
func (s *Store) ActiveParams(ctx context.Context, key games.Key) (parameters.Params, error) {
	v, err := s.GetActive(ctx, key)
	if err != nil {
		return nil, err
	}
	return v.Params, nil
}

// SetActive validates params, archives the current parameters of key and installs params as a new
// version, which is returned.
func (s *Store) SetActive(ctx context.Context, key games.Key, params parameters.Params, reason storage.Reason, metrics storage.Metrics) (int, error) {
	return s.SetActiveIfVersion(ctx, key, AnyVersion, params, reason, metrics)
}

// SetActiveIfVersion is like SetActive, but fails with ErrConflict if the active version (as
// returned by GetActive) is not expectedVersion.
func (s *Store) SetActiveIfVersion(ctx context.Context, key games.Key, expectedVersion int,
	params parameters.Params, reason storage.Reason, metrics storage.Metrics) (int, error) {
	if err := key.Validate(); err != nil {
		return 0, err
	}
	if reason != storage.ReasonTrained && reason != storage.ReasonManual {
		return 0, errors.Errorf("invalid change reason %q, only %q or %q can be set directly",
			reason, storage.ReasonTrained, storage.ReasonManual)
	}
	params = params.Clone().Normalize()
	if err := parameters.Validate(key.Game, params); err != nil {
		return 0, err
	}

	unlock := s.lockKey(key)
	defer unlock()
	current, stored, entries, err := s.current(ctx, key)
	if err != nil {
		return 0, err
	}
	if expectedVersion != AnyVersion && expectedVersion != stored {
		return 0, errors.Wrapf(ErrConflict, "%s: expected active version %d, found %d", key, expectedVersion, stored)
	}
	now := s.now()
	entries = append(entries, s.archive(current, reason, metrics, now))
	next := storage.ActiveRow{Key: key, Version: current.Version + 1, Params: params, UpdatedAt: now}
	if err := s.commit(ctx, stored, entries, next); err != nil {
		return 0, err
	}
	klog.V(1).Infof("Parameters of %s updated to version %d (%s)", key, next.Version, reason)
	return next.Version, nil
}

// current returns the active row of key and its stored version. If there is no row, it is
// materialized from the defaults as version 1 (with stored version 0), and the seed history entry to
// commit along with it is returned.
func (s *Store) current(ctx context.Context, key games.Key) (row storage.ActiveRow, stored int, seed []storage.HistoryEntry, err error) {
	row, found, err := s.backend.GetActive(ctx, key)
	if err != nil {
		return row, 0, nil, errors.WithMessagef(err, "reading active parameters of %s", key)
	}
	if found {
		return row, row.Version, nil, nil
	}
	params, err := parameters.Default(key)
	if err != nil {
		return row, 0, nil, err
	}
	now := s.now()
	row = storage.ActiveRow{Key: key, Version: 1, Params: params, UpdatedAt: now}
	return row, 0, []storage.HistoryEntry{s.archive(row, storage.ReasonSeed, nil, now)}, nil
}

// archive returns the history entry snapshotting row.
func (s *Store) archive(row storage.ActiveRow, reason storage.Reason, metrics storage.Metrics, now time.Time) storage.HistoryEntry {
	return storage.HistoryEntry{
		ID:              uuid.NewString(),
		Key:             row.Key,
		Version:         row.Version,
		Params:          row.Params,
		Reason:          reason,
		PreviousVersion: max(row.Version-1, 0),
		Metrics:         metrics,
		CreatedAt:       now,
	}
}

// commit appends entries and installs next, provided the stored version is still the given one.
func (s *Store) commit(ctx context.Context, stored int, entries []storage.HistoryEntry, next storage.ActiveRow) error {
	if err := s.backend.CommitActive(ctx, stored, next, entries...); err != nil {
		return errors.WithMessagef(err, "committing version %d of %s", next.Version, next.Key)
	}
	return nil
}

// Rollback installs the parameters archived with targetVersion as a new version. The current
// parameters are archived first, so nothing is lost. It returns ErrNotFound if targetVersion is
// not in the history of key.
func (s *Store) Rollback(ctx context.Context, key games.Key, targetVersion int) (Version, error) {
	if err := key.Validate(); err != nil {
		return Version{}, err
	}
	unlock := s.lockKey(key)
	defer unlock()

	target, found, err := s.backend.FindVersion(ctx, key, targetVersion)
	if err != nil {
		return Version{}, errors.WithMessagef(err, "looking for version %d of %s", targetVersion, key)
	}
	if !found {
		return Version{}, errors.Wrapf(ErrNotFound, "%s: version %d", key, targetVersion)
	}
	current, stored, entries, err := s.current(ctx, key)
	if err != nil {
		return Version{}, err
	}
	now := s.now()
	next := storage.ActiveRow{Key: key, Version: current.Version + 1, Params: target.Params, UpdatedAt: now}
	rollback := s.archive(next, storage.ReasonRollback, storage.Metrics{"restored_version": targetVersion}, now)
	rollback.PreviousVersion = current.Version
	entries = append(entries, s.archive(current, storage.ReasonRollbackPreSnapshot, nil, now), rollback)
	if err := s.commit(ctx, stored, entries, next); err != nil {
		return Version{}, err
	}
	klog.Infof("Parameters of %s rolled back to the ones of version %d, now version %d", key, targetVersion, next.Version)
	return Version{Key: key, Version: next.Version, Params: next.Params.Clone(), UpdatedAt: now}, nil
}

// History returns the archived entries of key, newest first. A limit <= 0 returns
// DefaultHistoryLimit entries, and it is capped at MaxHistoryLimit.
func (s *Store) History(ctx context.Context, key games.Key, limit int) ([]storage.HistoryEntry, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	entries, err := s.backend.History(ctx, key, limit)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading history of %s", key)
	}
	return entries, nil
}

// InitializeDefaults materializes the built-in defaults of every key without active parameters. It
// returns how many keys were created, and how many already existed.
func (s *Store) InitializeDefaults(ctx context.Context) (created, existing int, err error) {
	for _, key := range games.AllKeys() {
		materialized, err := s.materialize(ctx, key)
		if err != nil {
			return created, existing, err
		}
		if materialized {
			created++
		} else {
			existing++
		}
	}
	klog.V(1).Infof("Initialized default parameters: %d created, %d existing", created, existing)
	return created, existing, nil
}

func (s *Store) materialize(ctx context.Context, key games.Key) (bool, error) {
	unlock := s.lockKey(key)
	defer unlock()
	row, stored, seed, err := s.current(ctx, key)
	if err != nil {
		return false, err
	}
	if len(seed) == 0 {
		return false, nil
	}
	if err := s.commit(ctx, stored, seed, row); err != nil {
		return false, err
	}
	return true, nil
}

// AllActive returns the active parameters of every key that was materialized.
func (s *Store) AllActive(ctx context.Context) ([]Version, error) {
	rows, err := s.backend.ListActive(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "listing active parameters")
	}
	versions := make([]Version, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, Version{Key: row.Key, Version: row.Version, Params: row.Params, UpdatedAt: row.UpdatedAt})
	}
	return versions, nil
}
