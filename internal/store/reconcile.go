package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

// RewriteIDs swaps every mapped temporary id for its durable id across the
// local collections, including the exercise_id references dependent sets and
// rest periods hold. The swap happens in one transaction so no reader ever
// sees a half-rewritten document graph.
func (s *Store) RewriteIDs(ctx context.Context, mapping *domain.IDMapping) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range mapping.Exercises {
			if _, err := tx.ExecContext(ctx, `UPDATE exercises SET id = ? WHERE id = ?`, p.ID, p.TempID); err != nil {
				return fmt.Errorf("failed to rewrite exercise %s: %w", p.TempID, err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE workout_sets SET exercise_id = ? WHERE exercise_id = ?`, p.ID, p.TempID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE rest_periods SET exercise_id = ? WHERE exercise_id = ?`, p.ID, p.TempID); err != nil {
				return err
			}
		}
		for _, p := range mapping.Sets {
			if _, err := tx.ExecContext(ctx, `UPDATE workout_sets SET id = ? WHERE id = ?`, p.ID, p.TempID); err != nil {
				return fmt.Errorf("failed to rewrite set %s: %w", p.TempID, err)
			}
		}
		for _, p := range mapping.Rests {
			if _, err := tx.ExecContext(ctx, `UPDATE rest_periods SET id = ? WHERE id = ?`, p.ID, p.TempID); err != nil {
				return fmt.Errorf("failed to rewrite rest period %s: %w", p.TempID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(domain.CollectionExercises, domain.CollectionSets, domain.CollectionRests)
	return nil
}

// MarkSynced flips is_synced on one document and aligns its updated_at with
// the server clock. Unknown ids are ignored: the document may have been
// deleted locally while the batch was in flight.
func (s *Store) MarkSynced(ctx context.Context, collection, id string, serverUpdatedAt time.Time) error {
	var table, key string
	switch collection {
	case domain.CollectionDays:
		table, key = "workout_days", "date"
	case domain.CollectionExercises:
		table, key = "exercises", "id"
	case domain.CollectionSets:
		table, key = "workout_sets", "id"
	case domain.CollectionRests:
		table, key = "rest_periods", "id"
	default:
		return domain.ErrNotFound
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET is_synced = 1, updated_at = ? WHERE `+key+` = ?`,
		serverUpdatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark %s/%s synced: %w", collection, id, err)
	}
	s.notify(collection)
	return nil
}
