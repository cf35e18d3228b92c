package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

func validateExercise(ex *domain.Exercise) error {
	if !domain.ValidDate(ex.Date) {
		return domain.NewValidationError(domain.CollectionExercises, "date", "must be YYYY-MM-DD")
	}
	if ex.CatalogID == "" {
		return domain.NewValidationError(domain.CollectionExercises, "catalog_id", "required")
	}
	if ex.Position < 0 {
		return domain.NewValidationError(domain.CollectionExercises, "position", "must not be negative")
	}
	return nil
}

// InsertExercise writes a new exercise. A missing id gets a fresh local ULID,
// is_synced starts false unless explicitly set, and both timestamps are
// stamped to the same instant. The owning day is materialized if absent;
// inserting into a rest day is rejected with ErrDayIsRest.
func (s *Store) InsertExercise(ctx context.Context, ex *domain.Exercise) error {
	if err := validateExercise(ex); err != nil {
		return err
	}
	day, err := s.EnsureDay(ctx, ex.Date)
	if err != nil {
		return err
	}
	if day.IsRestDay {
		return domain.ErrDayIsRest
	}
	if ex.ID == "" {
		ex.ID = domain.NewLocalID()
	}
	now := time.Now().UTC()
	ex.CreatedAt = now
	ex.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exercises (id, date, catalog_id, notes, position, is_synced, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Date, ex.CatalogID, ex.Notes, ex.Position, ex.IsSynced, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert exercise: %w", err)
	}
	s.notify(domain.CollectionExercises)
	return nil
}

// UpdateExercise rewrites the mutable fields of an exercise, restamping
// updated_at and clearing is_synced.
func (s *Store) UpdateExercise(ctx context.Context, ex *domain.Exercise) error {
	if err := validateExercise(ex); err != nil {
		return err
	}
	now := time.Now().UTC()
	ex.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`UPDATE exercises SET catalog_id = ?, notes = ?, position = ?, is_synced = 0, updated_at = ? WHERE id = ?`,
		ex.CatalogID, ex.Notes, ex.Position, now, ex.ID)
	if err != nil {
		return fmt.Errorf("failed to update exercise: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrExerciseNotFound
	}
	s.notify(domain.CollectionExercises)
	return nil
}

// DeleteExercise hard-deletes an exercise and its timeline, leaving one
// tombstone per removed document.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrExerciseNotFound
		}
		if err := tombstoneTx(ctx, tx, id, domain.CollectionExercises, now); err != nil {
			return err
		}
		if err := deleteChildrenTx(ctx, tx, "workout_sets", domain.CollectionSets, id, now); err != nil {
			return err
		}
		return deleteChildrenTx(ctx, tx, "rest_periods", domain.CollectionRests, id, now)
	})
	if err != nil {
		return err
	}
	s.notify(domain.CollectionExercises, domain.CollectionSets, domain.CollectionRests)
	return nil
}

// deleteChildrenTx removes every child row owned by exerciseID, tombstoning
// each one.
func deleteChildrenTx(ctx context.Context, tx *sql.Tx, table, collection, exerciseID string, at time.Time) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM `+table+` WHERE exercise_id = ?`, exerciseID)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return err
		}
		if err := tombstoneTx(ctx, tx, id, collection, at); err != nil {
			return err
		}
	}
	return nil
}

// ListExercises returns the day's exercises in position order.
func (s *Store) ListExercises(ctx context.Context, date string) ([]*domain.Exercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, catalog_id, notes, position, is_synced, created_at, updated_at
		 FROM exercises WHERE date = ? ORDER BY position`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Exercise
	for rows.Next() {
		var ex domain.Exercise
		if err := rows.Scan(&ex.ID, &ex.Date, &ex.CatalogID, &ex.Notes, &ex.Position, &ex.IsSynced, &ex.CreatedAt, &ex.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ex)
	}
	return out, rows.Err()
}

// GetExercise returns a single exercise by id.
func (s *Store) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	var ex domain.Exercise
	err := s.db.QueryRowContext(ctx,
		`SELECT id, date, catalog_id, notes, position, is_synced, created_at, updated_at FROM exercises WHERE id = ?`, id).
		Scan(&ex.ID, &ex.Date, &ex.CatalogID, &ex.Notes, &ex.Position, &ex.IsSynced, &ex.CreatedAt, &ex.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// ReorderExercises replaces the full position assignment for the day's
// exercises: position = index in orderedIDs. The list must name every
// sibling exactly once, which keeps positions dense from zero.
func (s *Store) ReorderExercises(ctx context.Context, date string, orderedIDs []string) error {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises WHERE date = ?`, date).Scan(&total); err != nil {
		return err
	}
	if total != len(orderedIDs) {
		return domain.NewValidationError(domain.CollectionExercises, "orderedIds",
			fmt.Sprintf("must name all %d siblings, got %d", total, len(orderedIDs)))
	}

	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i, id := range orderedIDs {
			res, err := tx.ExecContext(ctx,
				`UPDATE exercises SET position = ?, is_synced = 0, updated_at = ? WHERE id = ? AND date = ?`,
				i, now, id, date)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return domain.ErrExerciseNotFound
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(domain.CollectionExercises)
	return nil
}
