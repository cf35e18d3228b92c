package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

func validateSet(set *domain.WorkoutSet) error {
	if set.ExerciseID == "" {
		return domain.NewValidationError(domain.CollectionSets, "exercise_id", "required")
	}
	if set.Reps < 0 {
		return domain.NewValidationError(domain.CollectionSets, "reps", "must not be negative")
	}
	if set.WeightKg < 0 {
		return domain.NewValidationError(domain.CollectionSets, "weight_kg", "must not be negative")
	}
	if set.Position < 0 {
		return domain.NewValidationError(domain.CollectionSets, "position", "must not be negative")
	}
	return nil
}

// InsertSet writes a new set. volume_kg is always recomputed from reps and
// weight; whatever the caller put in VolumeKg is discarded.
func (s *Store) InsertSet(ctx context.Context, set *domain.WorkoutSet) error {
	if err := validateSet(set); err != nil {
		return err
	}
	if set.ID == "" {
		set.ID = domain.NewLocalID()
	}
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now
	set.VolumeKg = set.Volume()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workout_sets (id, exercise_id, reps, weight_kg, volume_kg, position, is_synced, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		set.ID, set.ExerciseID, set.Reps, set.WeightKg, set.VolumeKg, set.Position, set.IsSynced, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert set: %w", err)
	}
	s.notify(domain.CollectionSets)
	return nil
}

// UpdateSet rewrites a set's fields. The derivation runs on every update,
// including ones that only touch unrelated fields.
func (s *Store) UpdateSet(ctx context.Context, set *domain.WorkoutSet) error {
	if err := validateSet(set); err != nil {
		return err
	}
	now := time.Now().UTC()
	set.UpdatedAt = now
	set.VolumeKg = set.Volume()

	res, err := s.db.ExecContext(ctx,
		`UPDATE workout_sets SET reps = ?, weight_kg = ?, volume_kg = ?, position = ?, is_synced = 0, updated_at = ? WHERE id = ?`,
		set.Reps, set.WeightKg, set.VolumeKg, set.Position, now, set.ID)
	if err != nil {
		return fmt.Errorf("failed to update set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrSetNotFound
	}
	s.notify(domain.CollectionSets)
	return nil
}

// DeleteSet hard-deletes a set and records its tombstone.
func (s *Store) DeleteSet(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM workout_sets WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrSetNotFound
		}
		return tombstoneTx(ctx, tx, id, domain.CollectionSets, now)
	})
	if err != nil {
		return err
	}
	s.notify(domain.CollectionSets)
	return nil
}

// GetSet returns a single set by id.
func (s *Store) GetSet(ctx context.Context, id string) (*domain.WorkoutSet, error) {
	var set domain.WorkoutSet
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exercise_id, reps, weight_kg, volume_kg, position, is_synced, created_at, updated_at
		 FROM workout_sets WHERE id = ?`, id).
		Scan(&set.ID, &set.ExerciseID, &set.Reps, &set.WeightKg, &set.VolumeKg, &set.Position, &set.IsSynced, &set.CreatedAt, &set.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// ListSets returns an exercise's sets in timeline order.
func (s *Store) ListSets(ctx context.Context, exerciseID string) ([]*domain.WorkoutSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exercise_id, reps, weight_kg, volume_kg, position, is_synced, created_at, updated_at
		 FROM workout_sets WHERE exercise_id = ? ORDER BY position`, exerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.WorkoutSet
	for rows.Next() {
		var set domain.WorkoutSet
		if err := rows.Scan(&set.ID, &set.ExerciseID, &set.Reps, &set.WeightKg, &set.VolumeKg, &set.Position, &set.IsSynced, &set.CreatedAt, &set.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &set)
	}
	return out, rows.Err()
}
