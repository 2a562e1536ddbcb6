//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists everything in a SQLite database file, using the pure Go modernc.org/sqlite driver.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore returns a store backed by the database in path. It is only opened by Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required, see -sqlite")
	}
	return NewSQLiteStore(path), nil
}

// Init implements Store: it opens the database and creates the missing tables.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q", s.path)
	}
	// A single connection serializes the writers, and the version check in CommitActive can't race.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrapf(err, "failed to connect to %q", s.path)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS active_params (
			game TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			version INTEGER NOT NULL,
			params BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (game, difficulty)
		)`,
		`CREATE TABLE IF NOT EXISTS param_history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			game TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			version INTEGER NOT NULL,
			params BLOB NOT NULL,
			reason TEXT NOT NULL,
			previous_version INTEGER NOT NULL,
			metrics BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS param_history_key ON param_history (game, difficulty, seq)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			game_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			won INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS match_records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			player_won INTEGER NOT NULL,
			score INTEGER NOT NULL,
			total_moves INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			payload BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS match_records_game ON match_records (game_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create tables")
		}
	}
	return nil
}

func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(nanos int64) time.Time { return time.Unix(0, nanos).UTC() }

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanActive(scanner rowScanner) (ActiveRow, error) {
	var (
		row       ActiveRow
		payload   []byte
		updatedAt int64
	)
	if err := scanner.Scan(&row.Key.Game, &row.Key.Difficulty, &row.Version, &payload, &updatedAt); err != nil {
		return ActiveRow{}, err
	}
	params, err := DecodeParams(payload)
	if err != nil {
		return ActiveRow{}, errors.WithMessagef(err, "decode active params of %s", row.Key)
	}
	row.Params = params
	row.UpdatedAt = fromUnix(updatedAt)
	return row, nil
}

// GetActive implements Store.
func (s *SQLiteStore) GetActive(ctx context.Context, key games.Key) (ActiveRow, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ActiveRow{}, false, err
	}
	row, err := scanActive(db.QueryRowContext(ctx, `
		SELECT game, difficulty, version, params, updated_at FROM active_params
		WHERE game = ? AND difficulty = ?`, key.Game, key.Difficulty))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ActiveRow{}, false, nil
		}
		return ActiveRow{}, false, err
	}
	return row, true, nil
}

// ListActive implements Store.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]ActiveRow, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT game, difficulty, version, params, updated_at FROM active_params`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	byKey := make(map[games.Key]ActiveRow)
	for rows.Next() {
		row, err := scanActive(rows)
		if err != nil {
			return nil, err
		}
		byKey[row.Key] = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var active []ActiveRow
	for _, key := range games.AllKeys() {
		if row, found := byKey[key]; found {
			active = append(active, row)
		}
	}
	return active, nil
}

// CommitActive implements Store. The version check and the writes happen in one transaction.
func (s *SQLiteStore) CommitActive(ctx context.Context, expectedVersion int, row ActiveRow, entries ...HistoryEntry) (err error) {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current int
	err = tx.QueryRowContext(ctx, `SELECT version FROM active_params WHERE game = ? AND difficulty = ?`,
		row.Key.Game, row.Key.Difficulty).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if current != expectedVersion {
		return conflictf(row.Key, expectedVersion, current)
	}

	for _, entry := range entries {
		if entry.Key != row.Key {
			return errors.Errorf("history entry for %s committed with active row of %s", entry.Key, row.Key)
		}
		params, err := EncodeParams(entry.Params)
		if err != nil {
			return err
		}
		metrics, err := EncodeMetrics(entry.Metrics)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO param_history (id, game, difficulty, version, params, reason, previous_version, metrics, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.Key.Game, entry.Key.Difficulty, entry.Version, params, entry.Reason,
			entry.PreviousVersion, metrics, toUnix(entry.CreatedAt))
		if err != nil {
			return errors.Wrapf(err, "failed to archive version %d of %s", entry.Version, entry.Key)
		}
	}

	params, err := EncodeParams(row.Params)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO active_params (game, difficulty, version, params, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game, difficulty) DO UPDATE SET
			version = excluded.version,
			params = excluded.params,
			updated_at = excluded.updated_at`,
		row.Key.Game, row.Key.Difficulty, row.Version, params, toUnix(row.UpdatedAt))
	if err != nil {
		return errors.Wrapf(err, "failed to install version %d of %s", row.Version, row.Key)
	}
	return tx.Commit()
}

const historyColumns = `id, game, difficulty, version, params, reason, previous_version, metrics, created_at`

func scanHistory(scanner rowScanner) (HistoryEntry, error) {
	var (
		entry           HistoryEntry
		params, metrics []byte
		createdAt       int64
	)
	err := scanner.Scan(&entry.ID, &entry.Key.Game, &entry.Key.Difficulty, &entry.Version, &params,
		&entry.Reason, &entry.PreviousVersion, &metrics, &createdAt)
	if err != nil {
		return HistoryEntry{}, err
	}
	if entry.Params, err = DecodeParams(params); err != nil {
		return HistoryEntry{}, errors.WithMessagef(err, "decode params of history entry %s", entry.ID)
	}
	if entry.Metrics, err = DecodeMetrics(metrics); err != nil {
		return HistoryEntry{}, errors.WithMessagef(err, "decode metrics of history entry %s", entry.ID)
	}
	entry.CreatedAt = fromUnix(createdAt)
	return entry, nil
}

// History implements Store.
func (s *SQLiteStore) History(ctx context.Context, key games.Key, limit int) ([]HistoryEntry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+historyColumns+` FROM param_history
		WHERE game = ? AND difficulty = ? ORDER BY seq DESC LIMIT ?`, key.Game, key.Difficulty, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	entries := []HistoryEntry{}
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindVersion implements Store.
func (s *SQLiteStore) FindVersion(ctx context.Context, key games.Key, version int) (HistoryEntry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return HistoryEntry{}, false, err
	}
	entry, err := scanHistory(db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM param_history
		WHERE game = ? AND difficulty = ? AND version = ? ORDER BY seq DESC LIMIT 1`,
		key.Game, key.Difficulty, version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return HistoryEntry{}, false, nil
		}
		return HistoryEntry{}, false, err
	}
	return entry, true, nil
}

// SaveSession implements Store.
func (s *SQLiteStore) SaveSession(ctx context.Context, session Session) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (id, game_id, user_id, score, won, moves, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.GameID, session.UserID, session.Score, session.Won, session.Moves,
		session.DurationSeconds, toUnix(session.CreatedAt))
	return errors.Wrapf(err, "failed to save session %s", session.ID)
}

// ListSessions implements Store.
func (s *SQLiteStore) ListSessions(ctx context.Context, game games.ID, since time.Time) ([]Session, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, game_id, user_id, score, won, moves, duration_seconds, created_at FROM sessions
		WHERE (? = '' OR game_id = ?) AND created_at >= ?
		ORDER BY created_at DESC, seq DESC`, game, game, toUnix(since))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var sessions []Session
	for rows.Next() {
		var (
			session   Session
			createdAt int64
		)
		if err := rows.Scan(&session.ID, &session.GameID, &session.UserID, &session.Score, &session.Won,
			&session.Moves, &session.DurationSeconds, &createdAt); err != nil {
			return nil, err
		}
		session.CreatedAt = fromUnix(createdAt)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SaveMatch implements Store.
func (s *SQLiteStore) SaveMatch(ctx context.Context, match MatchRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeMatchPayload(match)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO match_records (id, session_id, game_id, player_won, score, total_moves, duration_seconds, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		match.ID, match.SessionID, match.GameID, match.PlayerWon, match.Score, match.TotalMoves,
		match.DurationSeconds, payload, toUnix(match.CreatedAt))
	return errors.Wrapf(err, "failed to save match %s", match.ID)
}

// RecentMatches implements Store.
func (s *SQLiteStore) RecentMatches(ctx context.Context, game games.ID, since time.Time, limit int) ([]MatchRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, game_id, player_won, score, total_moves, duration_seconds, payload, created_at
		FROM match_records WHERE game_id = ? AND created_at >= ?
		ORDER BY created_at DESC, seq DESC LIMIT ?`, game, toUnix(since), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var matches []MatchRecord
	for rows.Next() {
		var (
			match     MatchRecord
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&match.ID, &match.SessionID, &match.GameID, &match.PlayerWon, &match.Score,
			&match.TotalMoves, &match.DurationSeconds, &payload, &createdAt); err != nil {
			return nil, err
		}
		if err := DecodeMatchPayload(payload, &match); err != nil {
			return nil, errors.WithMessagef(err, "decode match %s", match.ID)
		}
		match.CreatedAt = fromUnix(createdAt)
		matches = append(matches, match)
	}
	return matches, rows.Err()
}
