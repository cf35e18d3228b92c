package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

// Queue is the persisted mutation log. Operations are appended in arrival
// order and flushed as an immutable prefix: anything enqueued after a
// snapshot was cut belongs to the next batch.
type Queue struct {
	db     *sql.DB
	notify chan struct{}
}

func newQueue(db *sql.DB) *Queue {
	return &Queue{
		db:     db,
		notify: make(chan struct{}, 1),
	}
}

// PendingOp is one queued operation with its log sequence number.
type PendingOp struct {
	Seq int64
	Op  domain.Operation
}

// Enqueue validates op and appends it to the log. Invalid operations are
// rejected synchronously and never enter the queue.
func (q *Queue) Enqueue(ctx context.Context, op domain.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to encode operation: %w", err)
	}
	if _, err := q.db.ExecContext(ctx,
		`INSERT INTO pending_ops (op, enqueued_at) VALUES (?, ?)`, string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Notify signals queue activity; the sync client debounces off it.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

// Len returns the number of pending operations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_ops`).Scan(&n)
	return n, err
}

// Pending returns every queued operation in log order.
func (q *Queue) Pending(ctx context.Context) ([]PendingOp, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT seq, op FROM pending_ops ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingOp
	for rows.Next() {
		var p PendingOp
		var raw string
		if err := rows.Scan(&p.Seq, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &p.Op); err != nil {
			return nil, fmt.Errorf("failed to decode pending op %d: %w", p.Seq, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Snapshot cuts the current pending prefix for a flush. The returned slice
// is immutable from the queue's perspective; release it with Release once
// the batch is acknowledged.
func (q *Queue) Snapshot(ctx context.Context) ([]PendingOp, error) {
	return q.Pending(ctx)
}

// Release removes the applied prefix (everything with seq <= maxSeq).
func (q *Queue) Release(ctx context.Context, maxSeq int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pending_ops WHERE seq <= ?`, maxSeq)
	return err
}

// RewritePending swaps mapped tempIds for durable ids in every still-queued
// operation, then verifies the invariant that no queued operation references
// a temporary id that neither the mapping resolved nor an earlier queued
// create introduces. A violation means an operation escaped its originating
// batch boundary and is returned as ErrTempIDLeak.
func (q *Queue) RewritePending(ctx context.Context, mapping map[string]string) error {
	pending, err := q.Pending(ctx)
	if err != nil {
		return err
	}

	introduced := make(map[string]struct{})
	for _, p := range pending {
		op := p.Op
		changed := op.RewriteIDs(mapping) > 0

		for _, ref := range op.Refs() {
			if domain.IsDurableID(*ref) {
				continue
			}
			if _, ok := introduced[*ref]; !ok {
				return fmt.Errorf("pending op %d (%s) references %s: %w",
					p.Seq, op.Type, *ref, domain.ErrTempIDLeak)
			}
		}
		if op.IsCreate() {
			introduced[op.TempID] = struct{}{}
		}

		if changed {
			raw, err := json.Marshal(op)
			if err != nil {
				return fmt.Errorf("failed to encode rewritten op %d: %w", p.Seq, err)
			}
			if _, err := q.db.ExecContext(ctx, `UPDATE pending_ops SET op = ? WHERE seq = ?`, string(raw), p.Seq); err != nil {
				return fmt.Errorf("failed to rewrite pending op %d: %w", p.Seq, err)
			}
		}
	}
	return nil
}
