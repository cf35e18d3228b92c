package localsync

import (
	"context"
	"fmt"

	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/store"
)

// reconcile commits a successful batch response: rewrite tempIds to durable
// ids across local documents, mark everything the batch touched as synced
// with updated_at aligned to the server clock, release the applied prefix,
// then rewrite tempId references in ops queued for the next batch. This runs
// to completion before Flush returns, so the next batch can never carry an
// unresolved tempId the server has already mapped.
func (c *Client) reconcile(ctx context.Context, applied []store.PendingOp, resp *domain.BatchResponse) error {
	pairs := resp.Mapping.Pairs()

	if err := c.store.RewriteIDs(ctx, &resp.Mapping); err != nil {
		return fmt.Errorf("failed to rewrite local ids: %w", err)
	}

	resolve := func(id string) string {
		if durable, ok := pairs[id]; ok {
			return durable
		}
		return id
	}

	for _, p := range applied {
		op := p.Op
		if op.Date != "" {
			if err := c.store.MarkSynced(ctx, domain.CollectionDays, op.Date, resp.UpdatedAt); err != nil {
				return err
			}
		}

		collection := op.Collection()
		switch op.Type {
		case domain.OpCreateExercise, domain.OpCreateSet, domain.OpCreateRest:
			if err := c.store.MarkSynced(ctx, collection, resolve(op.TempID), resp.UpdatedAt); err != nil {
				return err
			}
		case domain.OpUpdateExercise, domain.OpUpdateSet, domain.OpUpdateRest:
			if err := c.store.MarkSynced(ctx, collection, resolve(op.ID), resp.UpdatedAt); err != nil {
				return err
			}
		case domain.OpReorderExercises, domain.OpReorderSets:
			for _, id := range op.OrderedIDs {
				if err := c.store.MarkSynced(ctx, collection, resolve(id), resp.UpdatedAt); err != nil {
					return err
				}
			}
			if op.Type == domain.OpReorderSets {
				// A timeline reorder may interleave rest periods; their rows
				// live in the other collection, MarkSynced on the wrong one
				// is a no-op, so sweep both.
				for _, id := range op.OrderedIDs {
					if err := c.store.MarkSynced(ctx, domain.CollectionRests, resolve(id), resp.UpdatedAt); err != nil {
						return err
					}
				}
			}
		}
		// Deletes leave nothing local to mark; their tombstones are immutable.
	}

	if err := c.queue.Release(ctx, applied[len(applied)-1].Seq); err != nil {
		return fmt.Errorf("failed to release applied ops: %w", err)
	}
	if err := c.queue.RewritePending(ctx, pairs); err != nil {
		return err
	}
	return nil
}
