package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fitstack/liftsync/internal/domain"
)

// DayService assembles the read model for a single workout day: the day
// document plus its exercises and every exercise's sets and rest periods.
type DayService struct {
	days      domain.DayRepository
	exercises domain.ExerciseRepository
	sets      domain.SetRepository
	rests     domain.RestRepository
}

func NewDayService(
	days domain.DayRepository,
	exercises domain.ExerciseRepository,
	sets domain.SetRepository,
	rests domain.RestRepository,
) *DayService {
	return &DayService{days: days, exercises: exercises, sets: sets, rests: rests}
}

// GetDay returns the full view of the user's day. With ensure set, a missing
// day is created empty instead of failing with ErrDayNotFound.
func (s *DayService) GetDay(ctx context.Context, userID, date string, ensure bool) (*domain.DayView, error) {
	if !domain.ValidDate(date) {
		return nil, domain.NewValidationError(domain.CollectionDays, "date", "must be formatted YYYY-MM-DD")
	}

	var day *domain.WorkoutDay
	var err error
	if ensure {
		day, _, err = s.days.Ensure(ctx, userID, date)
	} else {
		day, err = s.days.GetByDate(ctx, userID, date)
	}
	if err != nil {
		if errors.Is(err, domain.ErrDayNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load day %s: %w", date, err)
	}

	exercises, err := s.exercises.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises for %s: %w", date, err)
	}

	view := &domain.DayView{
		Day:       day,
		Exercises: exercises,
		Sets:      []*domain.WorkoutSet{},
		Rests:     []*domain.RestPeriod{},
	}

	// Child collections fan out per exercise; a day rarely holds more than a
	// handful so unbounded concurrency is fine here. Slot per exercise keeps
	// the merged slices in exercise order without extra locking.
	setsByExercise := make([][]*domain.WorkoutSet, len(exercises))
	restsByExercise := make([][]*domain.RestPeriod, len(exercises))
	g, gCtx := errgroup.WithContext(ctx)
	for i, ex := range exercises {
		g.Go(func() error {
			sets, err := s.sets.ListByExerciseID(gCtx, ex.ID)
			if err != nil {
				return fmt.Errorf("failed to list sets for exercise %s: %w", ex.ID, err)
			}
			setsByExercise[i] = sets
			return nil
		})
		g.Go(func() error {
			rests, err := s.rests.ListByExerciseID(gCtx, ex.ID)
			if err != nil {
				return fmt.Errorf("failed to list rests for exercise %s: %w", ex.ID, err)
			}
			restsByExercise[i] = rests
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range exercises {
		view.Sets = append(view.Sets, setsByExercise[i]...)
		view.Rests = append(view.Rests, restsByExercise[i]...)
	}
	return view, nil
}
