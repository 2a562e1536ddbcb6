package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/pkg/errors"
)

// MemoryStore keeps everything in memory. Reads return copies, so callers can't change the stored values.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	active      map[games.Key]ActiveRow
	history     map[games.Key][]HistoryEntry // Oldest first.
	sessions    []Session                    // Oldest first.
	matches     []MatchRecord                // Oldest first.
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore. It must be initialized with Init before use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init implements Store. Initializing twice keeps the contents.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	s.initialized = true
	s.active = make(map[games.Key]ActiveRow)
	s.history = make(map[games.Key][]HistoryEntry)
	return nil
}

func (s *MemoryStore) check(ctx context.Context) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return ctx.Err()
}

// GetActive implements Store.
func (s *MemoryStore) GetActive(ctx context.Context, key games.Key) (ActiveRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return ActiveRow{}, false, err
	}
	row, found := s.active[key]
	if !found {
		return ActiveRow{}, false, nil
	}
	return row.Clone(), true, nil
}

// ListActive implements Store.
func (s *MemoryStore) ListActive(ctx context.Context) ([]ActiveRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var rows []ActiveRow
	for _, key := range games.AllKeys() {
		if row, found := s.active[key]; found {
			rows = append(rows, row.Clone())
		}
	}
	return rows, nil
}

// CommitActive implements Store.
func (s *MemoryStore) CommitActive(ctx context.Context, expectedVersion int, row ActiveRow, entries ...HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	current := s.active[row.Key].Version
	if current != expectedVersion {
		return conflictf(row.Key, expectedVersion, current)
	}
	for _, entry := range entries {
		if entry.Key != row.Key {
			return errors.Errorf("history entry for %s committed with active row of %s", entry.Key, row.Key)
		}
	}
	for _, entry := range entries {
		s.history[row.Key] = append(s.history[row.Key], entry.Clone())
	}
	s.active[row.Key] = row.Clone()
	return nil
}

// History implements Store.
func (s *MemoryStore) History(ctx context.Context, key games.Key, limit int) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	all := s.history[key]
	entries := make([]HistoryEntry, 0, min(limit, len(all)))
	for ii := len(all) - 1; ii >= 0 && len(entries) < limit; ii-- {
		entries = append(entries, all[ii].Clone())
	}
	return entries, nil
}

// FindVersion implements Store.
func (s *MemoryStore) FindVersion(ctx context.Context, key games.Key, version int) (HistoryEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return HistoryEntry{}, false, err
	}
	all := s.history[key]
	for ii := len(all) - 1; ii >= 0; ii-- {
		if all[ii].Version == version {
			return all[ii].Clone(), true, nil
		}
	}
	return HistoryEntry{}, false, nil
}

// SaveSession implements Store.
func (s *MemoryStore) SaveSession(ctx context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.sessions = append(s.sessions, session)
	return nil
}

// ListSessions implements Store.
func (s *MemoryStore) ListSessions(ctx context.Context, game games.ID, since time.Time) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var sessions []Session
	for ii := len(s.sessions) - 1; ii >= 0; ii-- {
		session := s.sessions[ii]
		if (game == "" || session.GameID == game) && !session.CreatedAt.Before(since) {
			sessions = append(sessions, session)
		}
	}
	sortNewestFirst(sessions, func(session Session) time.Time { return session.CreatedAt })
	return sessions, nil
}

// SaveMatch implements Store.
func (s *MemoryStore) SaveMatch(ctx context.Context, match MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.matches = append(s.matches, match)
	return nil
}

// RecentMatches implements Store.
func (s *MemoryStore) RecentMatches(ctx context.Context, game games.ID, since time.Time, limit int) ([]MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var matches []MatchRecord
	for ii := len(s.matches) - 1; ii >= 0; ii-- {
		match := s.matches[ii]
		if match.GameID == game && !match.CreatedAt.Before(since) {
			matches = append(matches, match)
		}
	}
	sortNewestFirst(matches, func(match MatchRecord) time.Time { return match.CreatedAt })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return generics.SliceMap(matches, cloneMatch), nil
}

// sortNewestFirst sorts records by decreasing creation time. It is stable, so records created at the
// same time keep their relative order.
func sortNewestFirst[T any](records []T, createdAt func(T) time.Time) {
	slices.SortStableFunc(records, func(a, b T) int { return createdAt(b).Compare(createdAt(a)) })
}

// cloneMatch returns a copy of match that doesn't share the raw JSON slices.
func cloneMatch(match MatchRecord) MatchRecord {
	match.MovesSequence = slices.Clone(match.MovesSequence)
	match.CriticalMoments = slices.Clone(match.CriticalMoments)
	return match
}
