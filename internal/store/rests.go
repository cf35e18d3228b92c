package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

func validateRest(rest *domain.RestPeriod) error {
	if rest.ExerciseID == "" {
		return domain.NewValidationError(domain.CollectionRests, "exercise_id", "required")
	}
	if rest.DurationSeconds <= 0 {
		return domain.NewValidationError(domain.CollectionRests, "duration_seconds", "must be positive")
	}
	if rest.Position < 0 {
		return domain.NewValidationError(domain.CollectionRests, "position", "must not be negative")
	}
	return nil
}

// InsertRest writes a new rest period into an exercise's timeline.
func (s *Store) InsertRest(ctx context.Context, rest *domain.RestPeriod) error {
	if err := validateRest(rest); err != nil {
		return err
	}
	if rest.ID == "" {
		rest.ID = domain.NewLocalID()
	}
	now := time.Now().UTC()
	rest.CreatedAt = now
	rest.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rest_periods (id, exercise_id, duration_seconds, position, is_synced, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rest.ID, rest.ExerciseID, rest.DurationSeconds, rest.Position, rest.IsSynced, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert rest period: %w", err)
	}
	s.notify(domain.CollectionRests)
	return nil
}

// UpdateRest rewrites a rest period, restamping updated_at.
func (s *Store) UpdateRest(ctx context.Context, rest *domain.RestPeriod) error {
	if err := validateRest(rest); err != nil {
		return err
	}
	now := time.Now().UTC()
	rest.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`UPDATE rest_periods SET duration_seconds = ?, position = ?, is_synced = 0, updated_at = ? WHERE id = ?`,
		rest.DurationSeconds, rest.Position, now, rest.ID)
	if err != nil {
		return fmt.Errorf("failed to update rest period: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRestNotFound
	}
	s.notify(domain.CollectionRests)
	return nil
}

// DeleteRest hard-deletes a rest period and records its tombstone.
func (s *Store) DeleteRest(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM rest_periods WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrRestNotFound
		}
		return tombstoneTx(ctx, tx, id, domain.CollectionRests, now)
	})
	if err != nil {
		return err
	}
	s.notify(domain.CollectionRests)
	return nil
}

// GetRest returns a single rest period by id.
func (s *Store) GetRest(ctx context.Context, id string) (*domain.RestPeriod, error) {
	var rest domain.RestPeriod
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exercise_id, duration_seconds, position, is_synced, created_at, updated_at
		 FROM rest_periods WHERE id = ?`, id).
		Scan(&rest.ID, &rest.ExerciseID, &rest.DurationSeconds, &rest.Position, &rest.IsSynced, &rest.CreatedAt, &rest.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

// ListRests returns an exercise's rest periods in timeline order.
func (s *Store) ListRests(ctx context.Context, exerciseID string) ([]*domain.RestPeriod, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exercise_id, duration_seconds, position, is_synced, created_at, updated_at
		 FROM rest_periods WHERE exercise_id = ? ORDER BY position`, exerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RestPeriod
	for rows.Next() {
		var rest domain.RestPeriod
		if err := rows.Scan(&rest.ID, &rest.ExerciseID, &rest.DurationSeconds, &rest.Position, &rest.IsSynced, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rest)
	}
	return out, rows.Err()
}

// ReorderTimeline replaces the position assignment for an exercise's
// interleaved timeline. orderedIDs may mix set and rest ids and must name
// every timeline entry exactly once; position = index in the list.
func (s *Store) ReorderTimeline(ctx context.Context, exerciseID string, orderedIDs []string) error {
	var sets, rests int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workout_sets WHERE exercise_id = ?`, exerciseID).Scan(&sets); err != nil {
		return err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rest_periods WHERE exercise_id = ?`, exerciseID).Scan(&rests); err != nil {
		return err
	}
	if sets+rests != len(orderedIDs) {
		return domain.NewValidationError(domain.CollectionSets, "orderedIds",
			fmt.Sprintf("must name all %d timeline entries, got %d", sets+rests, len(orderedIDs)))
	}

	now := time.Now().UTC()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i, id := range orderedIDs {
			res, err := tx.ExecContext(ctx,
				`UPDATE workout_sets SET position = ?, is_synced = 0, updated_at = ? WHERE id = ? AND exercise_id = ?`,
				i, now, id, exerciseID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				continue
			}
			res, err = tx.ExecContext(ctx,
				`UPDATE rest_periods SET position = ?, is_synced = 0, updated_at = ? WHERE id = ? AND exercise_id = ?`,
				i, now, id, exerciseID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("timeline entry %s: %w", id, domain.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(domain.CollectionSets, domain.CollectionRests)
	return nil
}
