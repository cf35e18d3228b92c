// Package store is the embedded client-side document store. It holds the
// five offline collections (days, exercises, sets, rest periods, tombstones)
// plus the pending operation log, and owns the bookkeeping every write gets:
// local id assignment, created/updated stamps, is_synced flags and derived
// fields. SQLite serializes concurrent writers, so every store call is one
// atomic single-document operation from the engine's point of view.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS workout_days (
	id          TEXT PRIMARY KEY,
	date        TEXT NOT NULL UNIQUE,
	is_rest_day INTEGER NOT NULL DEFAULT 0,
	is_synced   INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS exercises (
	id         TEXT PRIMARY KEY,
	date       TEXT NOT NULL,
	catalog_id TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	is_synced  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exercises_date ON exercises(date);

CREATE TABLE IF NOT EXISTS workout_sets (
	id          TEXT PRIMARY KEY,
	exercise_id TEXT NOT NULL,
	reps        INTEGER NOT NULL,
	weight_kg   REAL NOT NULL,
	volume_kg   REAL NOT NULL,
	position    INTEGER NOT NULL,
	is_synced   INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sets_exercise ON workout_sets(exercise_id);

CREATE TABLE IF NOT EXISTS rest_periods (
	id               TEXT PRIMARY KEY,
	exercise_id      TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	position         INTEGER NOT NULL,
	is_synced        INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMP NOT NULL,
	updated_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rests_exercise ON rest_periods(exercise_id);

CREATE TABLE IF NOT EXISTS tombstones (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	collection  TEXT NOT NULL,
	deleted_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_ops (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	op          TEXT NOT NULL,
	enqueued_at TIMESTAMP NOT NULL
);
`

// Store wraps the local SQLite database.
type Store struct {
	db    *sql.DB
	queue *Queue

	subMu sync.Mutex
	subs  map[string][]*Subscription
}

// Open opens (creating if needed) the local database at path. Use
// "file::memory:?cache=shared" style DSNs for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	// Cross-process writers share this file; WAL plus a busy timeout keeps
	// them serialized instead of failing fast with SQLITE_BUSY.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure local store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate local store: %w", err)
	}

	s := &Store{
		db:   db,
		subs: make(map[string][]*Subscription),
	}
	s.queue = newQueue(db)
	return s, nil
}

// Queue returns the mutation queue persisted next to the documents.
func (s *Store) Queue() *Queue {
	return s.queue
}

// Close closes the underlying database and all subscriptions.
func (s *Store) Close() error {
	s.subMu.Lock()
	for _, subs := range s.subs {
		for _, sub := range subs {
			close(sub.C)
		}
	}
	s.subs = make(map[string][]*Subscription)
	s.subMu.Unlock()
	return s.db.Close()
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
