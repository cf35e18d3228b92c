package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

// tombstoneTx records a hard delete inside the caller's transaction.
// Tombstones are insert-only; nothing in the store ever updates one.
func tombstoneTx(ctx context.Context, tx *sql.Tx, documentID, collection string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tombstones (id, document_id, collection, deleted_at) VALUES (?, ?, ?, ?)`,
		domain.NewLocalID(), documentID, collection, at)
	return err
}

// ListTombstones returns the tombstones recorded for one collection.
func (s *Store) ListTombstones(ctx context.Context, collection string) ([]*domain.Tombstone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, collection, deleted_at FROM tombstones WHERE collection = ? ORDER BY deleted_at`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tombstone
	for rows.Next() {
		var t domain.Tombstone
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.Collection, &t.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
