package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

func scanDay(row *sql.Row) (*domain.WorkoutDay, error) {
	var day domain.WorkoutDay
	err := row.Scan(&day.ID, &day.Date, &day.IsRestDay, &day.IsSynced, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDayNotFound
		}
		return nil, err
	}
	return &day, nil
}

// GetDay returns the day for date, or ErrDayNotFound.
func (s *Store) GetDay(ctx context.Context, date string) (*domain.WorkoutDay, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, is_rest_day, is_synced, created_at, updated_at FROM workout_days WHERE date = ?`, date)
	return scanDay(row)
}

// EnsureDay returns the day for date, materializing it with is_rest_day=false
// when missing. The write is part of this method's contract, not a hidden
// side effect of a getter.
func (s *Store) EnsureDay(ctx context.Context, date string) (*domain.WorkoutDay, error) {
	if !domain.ValidDate(date) {
		return nil, domain.NewValidationError(domain.CollectionDays, "date", "must be YYYY-MM-DD")
	}
	day, err := s.GetDay(ctx, date)
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, domain.ErrDayNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	day = &domain.WorkoutDay{
		ID:        domain.NewLocalID(),
		Date:      date,
		IsRestDay: false,
		IsSynced:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workout_days (id, date, is_rest_day, is_synced, created_at, updated_at) VALUES (?, ?, 0, 0, ?, ?)`,
		day.ID, day.Date, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize day %s: %w", date, err)
	}
	s.notify(domain.CollectionDays)
	return day, nil
}

// SetRestDay toggles the rest flag for date. Toggling to rest is rejected
// with ErrDayHasExercises while the day owns exercises; the day is left
// untouched in that case.
func (s *Store) SetRestDay(ctx context.Context, date string, isRest bool) (*domain.WorkoutDay, error) {
	if _, err := s.EnsureDay(ctx, date); err != nil {
		return nil, err
	}
	if isRest {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises WHERE date = ?`, date).Scan(&n); err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, domain.ErrDayHasExercises
		}
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE workout_days SET is_rest_day = ?, is_synced = 0, updated_at = ? WHERE date = ?`,
		isRest, now, date)
	if err != nil {
		return nil, fmt.Errorf("failed to update day %s: %w", date, err)
	}
	s.notify(domain.CollectionDays)
	return s.GetDay(ctx, date)
}
