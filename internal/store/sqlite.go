package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TrendSentinel/internal/cache"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists cache entries and scan history to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets batch readers proceed while a writer holds the lock.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT NOT NULL,
			cache_key  TEXT NOT NULL,
			payload    BLOB NOT NULL,
			written_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_kind_key ON cache_entries(kind, cache_key)`,

		`CREATE TABLE IF NOT EXISTS batch_runs (
			id          TEXT PRIMARY KEY,
			list        TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			symbols     INTEGER,
			errors      INTEGER,
			triple_up   INTEGER,
			triple_down INTEGER,
			top_symbol  TEXT,
			top_score   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON batch_runs(started_at)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

// Upsert updates the newest row for the key, inserting one when none exists.
// Concurrent first writes may both insert; Query reads the newest row.
func (s *SQLiteStore) Upsert(ctx context.Context, e cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM cache_entries WHERE kind = ? AND cache_key = ? ORDER BY written_at DESC, id DESC LIMIT 1`,
		string(e.Key.Kind), e.Key.ID,
	).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO cache_entries (kind, cache_key, payload, written_at, created_at) VALUES (?,?,?,?,?)`,
			string(e.Key.Kind), e.Key.ID, e.Payload, e.WrittenAt.UnixNano(), time.Now().UnixNano(),
		)
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE cache_entries SET payload = ?, written_at = ? WHERE id = ?`,
			e.Payload, e.WrittenAt.UnixNano(), id,
		)
	}
	if err != nil {
		return fmt.Errorf("upsert %s: %w", e.Key, err)
	}
	return nil
}

// Query returns the newest entry for key.
func (s *SQLiteStore) Query(ctx context.Context, key cache.Key) (cache.Entry, bool, error) {
	var (
		payload   []byte
		writtenAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, written_at FROM cache_entries WHERE kind = ? AND cache_key = ? ORDER BY written_at DESC, id DESC LIMIT 1`,
		string(key.Kind), key.ID,
	).Scan(&payload, &writtenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("query %s: %w", key, err)
	}
	return cache.Entry{Key: key, Payload: payload, WrittenAt: time.Unix(0, writtenAt)}, true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key cache.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE kind = ? AND cache_key = ?`, string(key.Kind), key.ID)
	return err
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO batch_runs
		(id, list, started_at, finished_at, symbols, errors, triple_up, triple_down, top_symbol, top_score)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.List, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Symbols, run.Errors, run.TripleUp, run.TripleDown,
		run.TopSymbol, run.TopScore,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, list, started_at, finished_at, symbols, errors,
		triple_up, triple_down, top_symbol, top_score
		FROM batch_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r              RunRecord
			started, ended int64
		)
		if err := rows.Scan(&r.ID, &r.List, &started, &ended, &r.Symbols, &r.Errors,
			&r.TripleUp, &r.TripleDown, &r.TopSymbol, &r.TopScore); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, r.FinishedAt = time.Unix(started, 0), time.Unix(ended, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite store")
	return s.db.Close()
}
