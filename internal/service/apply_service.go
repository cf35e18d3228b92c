package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

// ApplyService applies one batch of client operations against the
// authoritative collections. A batch is all-or-nothing: every operation is
// validated and every reference staged before the first write, so a rejected
// batch leaves no trace. Idempotence is layered: the HTTP middleware replays
// cached responses by idempotency key, and underneath it every create
// resolves through client_id, so a replay that missed the cache still maps
// back to the originally created documents instead of duplicating them.
type ApplyService struct {
	days       domain.DayRepository
	exercises  domain.ExerciseRepository
	sets       domain.SetRepository
	rests      domain.RestRepository
	tombstones domain.TombstoneRepository
	catalog    domain.CatalogRepository
}

func NewApplyService(
	days domain.DayRepository,
	exercises domain.ExerciseRepository,
	sets domain.SetRepository,
	rests domain.RestRepository,
	tombstones domain.TombstoneRepository,
	catalog domain.CatalogRepository,
) *ApplyService {
	return &ApplyService{
		days:       days,
		exercises:  exercises,
		sets:       sets,
		rests:      rests,
		tombstones: tombstones,
		catalog:    catalog,
	}
}

// ValidateBatch checks every operation's schema and the intra-batch tempId
// discipline: a tempId must be introduced by a create before anything
// references it, and may be introduced only once. Positional ordering alone
// is not trusted.
func ValidateBatch(batch *domain.Batch) error {
	if batch.Version != domain.BatchVersion {
		return domain.NewValidationError("batch", "version",
			fmt.Sprintf("unsupported version %q", batch.Version))
	}
	if len(batch.Ops) == 0 {
		return domain.NewValidationError("batch", "ops", "must not be empty")
	}

	introduced := make(map[string]struct{})
	for i, op := range batch.Ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
		for _, ref := range op.Refs() {
			if domain.IsDurableID(*ref) {
				continue
			}
			if _, ok := introduced[*ref]; !ok {
				return domain.NewValidationError("batch", "ops",
					fmt.Sprintf("op %d (%s) references tempId %s before a create introduces it", i, op.Type, *ref))
			}
		}
		if op.IsCreate() {
			if _, dup := introduced[op.TempID]; dup {
				return domain.NewValidationError("batch", "tempId",
					fmt.Sprintf("tempId %s introduced twice in one batch", op.TempID))
			}
			introduced[op.TempID] = struct{}{}
		}
	}
	return nil
}

// IsRejection reports whether err means the batch was definitively refused
// (as opposed to a server fault the client should retry).
func IsRejection(err error) bool {
	var vErr *domain.ValidationError
	return errors.As(err, &vErr) ||
		errors.Is(err, domain.ErrDayHasExercises) ||
		errors.Is(err, domain.ErrDayIsRest) ||
		errors.Is(err, domain.ErrCatalogNotFound) ||
		errors.Is(err, domain.ErrExerciseNotFound) ||
		errors.Is(err, domain.ErrSetNotFound) ||
		errors.Is(err, domain.ErrRestNotFound) ||
		errors.Is(err, domain.ErrDayNotFound) ||
		errors.Is(err, domain.ErrInvalidID)
}

// ApplyBatch validates, stages and executes the batch for userID, returning
// the tempId mapping for every entity the batch created.
func (s *ApplyService) ApplyBatch(ctx context.Context, userID string, batch *domain.Batch) (*domain.BatchResponse, error) {
	if err := ValidateBatch(batch); err != nil {
		return nil, err
	}
	if err := s.stage(ctx, userID, batch); err != nil {
		return nil, err
	}
	return s.execute(ctx, userID, batch)
}

// stageState simulates the effects earlier batch operations will have, so
// each invariant is checked against the state its op will actually execute
// in, not against the pre-batch collections.
type stageState struct {
	restFlags    map[string]bool     // date -> rest flag toggled in-batch
	createdEx    map[string][]string // date -> exercise tempIds created in-batch
	tempExDate   map[string]string   // exercise tempId -> date
	removedEx    map[string]int      // date -> durable exercises deleted in-batch
	createdItems map[string]int      // exercise ref -> sets+rests created in-batch
	tempItemEx   map[string]string   // set/rest tempId -> exercise ref
	removedItems map[string]int      // durable exercise id -> sets+rests deleted in-batch
}

func newStageState() *stageState {
	return &stageState{
		restFlags:    make(map[string]bool),
		createdEx:    make(map[string][]string),
		tempExDate:   make(map[string]string),
		removedEx:    make(map[string]int),
		createdItems: make(map[string]int),
		tempItemEx:   make(map[string]string),
		removedItems: make(map[string]int),
	}
}

func (st *stageState) createExercise(tempID, date string) {
	st.createdEx[date] = append(st.createdEx[date], tempID)
	st.tempExDate[tempID] = date
}

// deleteTempExercise undoes an in-batch create, including the timeline items
// created under it (execute cascades them).
func (st *stageState) deleteTempExercise(tempID string) {
	date, ok := st.tempExDate[tempID]
	if !ok {
		return
	}
	siblings := st.createdEx[date]
	for i, id := range siblings {
		if id == tempID {
			st.createdEx[date] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	delete(st.tempExDate, tempID)
	delete(st.createdItems, tempID)
}

func (st *stageState) deleteTempItem(tempID string) {
	if ref, ok := st.tempItemEx[tempID]; ok {
		st.createdItems[ref]--
		delete(st.tempItemEx, tempID)
	}
}

// exerciseCount is the number of exercises date will own at this point of the
// batch: the pre-batch collection, minus in-batch deletes, plus in-batch
// creates.
func (s *ApplyService) exerciseCount(ctx context.Context, st *stageState, userID, date string) (int, error) {
	owned, err := s.exercises.ListByDate(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	return len(owned) - st.removedEx[date] + len(st.createdEx[date]), nil
}

func (s *ApplyService) dayIsRest(ctx context.Context, st *stageState, userID, date string) (bool, error) {
	if rest, ok := st.restFlags[date]; ok {
		return rest, nil
	}
	day, err := s.days.GetByDate(ctx, userID, date)
	if errors.Is(err, domain.ErrDayNotFound) {
		// Execute will materialize it with is_rest_day=false.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return day.IsRestDay, nil
}

// timelineCount is the number of sets plus rests the exercise named by ref
// (tempId or durable id) will own at this point of the batch.
func (s *ApplyService) timelineCount(ctx context.Context, st *stageState, ref string) (int, error) {
	count := st.createdItems[ref]
	if !domain.IsDurableID(ref) {
		return count, nil
	}
	sets, err := s.sets.ListByExerciseID(ctx, ref)
	if err != nil {
		return 0, err
	}
	rests, err := s.rests.ListByExerciseID(ctx, ref)
	if err != nil {
		return 0, err
	}
	return count + len(sets) + len(rests) - st.removedItems[ref], nil
}

// stage verifies every durable reference and catalog id against the current
// collections, and every cross-document invariant against the in-batch
// simulation. All rejections happen here, before the first write.
func (s *ApplyService) stage(ctx context.Context, userID string, batch *domain.Batch) error {
	st := newStageState()
	for i, op := range batch.Ops {
		var err error
		switch op.Type {
		case domain.OpCreateExercise:
			_, err = s.catalog.GetByID(ctx, op.CatalogID)
			if err == nil {
				var rest bool
				rest, err = s.dayIsRest(ctx, st, userID, op.Date)
				if err == nil && rest {
					err = domain.ErrDayIsRest
				}
			}
			if err == nil {
				st.createExercise(op.TempID, op.Date)
			}
		case domain.OpCreateSet, domain.OpCreateRest:
			if domain.IsDurableID(op.ExerciseID) {
				_, err = s.exercises.GetByID(ctx, op.ExerciseID)
			}
			if err == nil {
				st.createdItems[op.ExerciseID]++
				st.tempItemEx[op.TempID] = op.ExerciseID
			}
		case domain.OpUpdateExercise:
			if domain.IsDurableID(op.ID) {
				_, err = s.exercises.GetByID(ctx, op.ID)
			}
		case domain.OpDeleteExercise:
			if domain.IsDurableID(op.ID) {
				var ex *domain.Exercise
				ex, err = s.exercises.GetByID(ctx, op.ID)
				if err == nil {
					st.removedEx[ex.Date]++
				}
			} else {
				st.deleteTempExercise(op.ID)
			}
		case domain.OpUpdateSet:
			if domain.IsDurableID(op.ID) {
				_, err = s.sets.GetByID(ctx, op.ID)
			}
		case domain.OpDeleteSet:
			if domain.IsDurableID(op.ID) {
				var set *domain.WorkoutSet
				set, err = s.sets.GetByID(ctx, op.ID)
				if err == nil {
					st.removedItems[set.ExerciseID]++
				}
			} else {
				st.deleteTempItem(op.ID)
			}
		case domain.OpUpdateRest:
			if domain.IsDurableID(op.ID) {
				_, err = s.rests.GetByID(ctx, op.ID)
			}
		case domain.OpDeleteRest:
			if domain.IsDurableID(op.ID) {
				var rest *domain.RestPeriod
				rest, err = s.rests.GetByID(ctx, op.ID)
				if err == nil {
					st.removedItems[rest.ExerciseID]++
				}
			} else {
				st.deleteTempItem(op.ID)
			}
		case domain.OpReorderExercises:
			for _, id := range op.OrderedIDs {
				if !domain.IsDurableID(id) {
					continue
				}
				if _, err = s.exercises.GetByID(ctx, id); err != nil {
					break
				}
			}
			if err == nil {
				var want int
				want, err = s.exerciseCount(ctx, st, userID, op.Date)
				if err == nil && len(op.OrderedIDs) != want {
					err = domain.NewValidationError(domain.CollectionExercises, "orderedIds",
						fmt.Sprintf("must name all %d siblings, got %d", want, len(op.OrderedIDs)))
				}
			}
		case domain.OpReorderSets:
			for _, id := range op.OrderedIDs {
				if !domain.IsDurableID(id) {
					continue
				}
				if _, err = s.sets.GetByID(ctx, id); errors.Is(err, domain.ErrSetNotFound) {
					_, err = s.rests.GetByID(ctx, id)
				}
				if err != nil {
					break
				}
			}
			if err == nil {
				var want int
				want, err = s.timelineCount(ctx, st, op.ExerciseID)
				if err == nil && len(op.OrderedIDs) != want {
					err = domain.NewValidationError(domain.CollectionSets, "orderedIds",
						fmt.Sprintf("must name all %d timeline items, got %d", want, len(op.OrderedIDs)))
				}
			}
		case domain.OpUpdateDay:
			if *op.IsRestDay {
				var owned int
				owned, err = s.exerciseCount(ctx, st, userID, op.Date)
				if err == nil && owned > 0 {
					err = domain.ErrDayHasExercises
				}
			}
			if err == nil {
				st.restFlags[op.Date] = *op.IsRestDay
			}
		}
		if err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Type, err)
		}
	}
	return nil
}

func (s *ApplyService) execute(ctx context.Context, userID string, batch *domain.Batch) (*domain.BatchResponse, error) {
	now := time.Now().UTC()
	mapping := domain.IDMapping{
		Exercises: []domain.IDPair{},
		Sets:      []domain.IDPair{},
		Rests:     []domain.IDPair{},
	}
	// tempId -> durable id, filled as creates execute in log order.
	ids := make(map[string]string, len(batch.Ops))
	resolve := func(id string) string {
		if durable, ok := ids[id]; ok {
			return durable
		}
		return id
	}
	// Days the batch touched, for the final updated_at alignment.
	dates := make(map[string]struct{})

	for i, op := range batch.Ops {
		var err error
		switch op.Type {
		case domain.OpCreateExercise:
			var id string
			id, err = s.createExercise(ctx, userID, &op, now)
			if err == nil {
				ids[op.TempID] = id
				mapping.Exercises = append(mapping.Exercises, domain.IDPair{TempID: op.TempID, ID: id})
				dates[op.Date] = struct{}{}
			}
		case domain.OpCreateSet:
			var id string
			id, err = s.createSet(ctx, &op, resolve(op.ExerciseID))
			if err == nil {
				ids[op.TempID] = id
				mapping.Sets = append(mapping.Sets, domain.IDPair{TempID: op.TempID, ID: id})
			}
		case domain.OpCreateRest:
			var id string
			id, err = s.createRest(ctx, &op, resolve(op.ExerciseID))
			if err == nil {
				ids[op.TempID] = id
				mapping.Rests = append(mapping.Rests, domain.IDPair{TempID: op.TempID, ID: id})
			}
		case domain.OpUpdateExercise:
			err = s.updateExercise(ctx, &op, resolve(op.ID))
		case domain.OpUpdateSet:
			err = s.updateSet(ctx, &op, resolve(op.ID))
		case domain.OpUpdateRest:
			err = s.updateRest(ctx, &op, resolve(op.ID))
		case domain.OpDeleteExercise:
			err = s.deleteExercise(ctx, resolve(op.ID), now)
		case domain.OpDeleteSet:
			err = s.deleteEntity(ctx, domain.CollectionSets, resolve(op.ID), now)
		case domain.OpDeleteRest:
			err = s.deleteEntity(ctx, domain.CollectionRests, resolve(op.ID), now)
		case domain.OpReorderExercises:
			for pos, id := range op.OrderedIDs {
				if err = s.exercises.SetPosition(ctx, resolve(id), pos, now); err != nil {
					break
				}
			}
			dates[op.Date] = struct{}{}
		case domain.OpReorderSets:
			err = s.reorderTimeline(ctx, &op, resolve, now)
		case domain.OpUpdateDay:
			_, _, err = s.days.Ensure(ctx, userID, op.Date)
			if err == nil {
				err = s.days.SetRestDay(ctx, userID, op.Date, *op.IsRestDay, now)
			}
			dates[op.Date] = struct{}{}
		}
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op.Type, err)
		}
	}

	for date := range dates {
		if err := s.days.Touch(ctx, userID, date, now); err != nil {
			return nil, fmt.Errorf("failed to touch day %s: %w", date, err)
		}
	}

	return &domain.BatchResponse{Applied: true, Mapping: mapping, UpdatedAt: now}, nil
}

func (s *ApplyService) createExercise(ctx context.Context, userID string, op *domain.Operation, now time.Time) (string, error) {
	if _, _, err := s.days.Ensure(ctx, userID, op.Date); err != nil {
		return "", err
	}
	// Dual-identity dedupe: a replayed create resolves to the document the
	// original application inserted.
	if existing, err := s.exercises.GetByClientID(ctx, userID, op.TempID); err == nil {
		return existing.ID, nil
	} else if !errors.Is(err, domain.ErrExerciseNotFound) {
		return "", err
	}

	position := 0
	if op.Position != nil {
		position = *op.Position
	} else {
		siblings, err := s.exercises.ListByDate(ctx, userID, op.Date)
		if err != nil {
			return "", err
		}
		position = len(siblings)
	}

	ex := &domain.Exercise{
		ClientID:  op.TempID,
		UserID:    userID,
		Date:      op.Date,
		CatalogID: op.CatalogID,
		Position:  position,
		IsSynced:  true,
	}
	if op.Notes != nil {
		ex.Notes = *op.Notes
	}
	if err := s.exercises.Create(ctx, ex); err != nil {
		return "", err
	}
	return ex.ID, nil
}

func (s *ApplyService) createSet(ctx context.Context, op *domain.Operation, exerciseID string) (string, error) {
	if existing, err := s.sets.GetByClientID(ctx, op.TempID); err == nil {
		return existing.ID, nil
	} else if !errors.Is(err, domain.ErrSetNotFound) {
		return "", err
	}

	set := &domain.WorkoutSet{
		ClientID:   op.TempID,
		ExerciseID: exerciseID,
		Reps:       *op.Reps,
		WeightKg:   *op.WeightKg,
		IsSynced:   true,
	}
	if op.Position != nil {
		set.Position = *op.Position
	}
	if err := s.sets.Create(ctx, set); err != nil {
		return "", err
	}
	return set.ID, nil
}

func (s *ApplyService) createRest(ctx context.Context, op *domain.Operation, exerciseID string) (string, error) {
	if existing, err := s.rests.GetByClientID(ctx, op.TempID); err == nil {
		return existing.ID, nil
	} else if !errors.Is(err, domain.ErrRestNotFound) {
		return "", err
	}

	rest := &domain.RestPeriod{
		ClientID:        op.TempID,
		ExerciseID:      exerciseID,
		DurationSeconds: *op.DurationSeconds,
		IsSynced:        true,
	}
	if op.Position != nil {
		rest.Position = *op.Position
	}
	if err := s.rests.Create(ctx, rest); err != nil {
		return "", err
	}
	return rest.ID, nil
}

func (s *ApplyService) updateExercise(ctx context.Context, op *domain.Operation, id string) error {
	ex, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if op.CatalogID != "" {
		if _, err := s.catalog.GetByID(ctx, op.CatalogID); err != nil {
			return err
		}
		ex.CatalogID = op.CatalogID
	}
	if op.Notes != nil {
		ex.Notes = *op.Notes
	}
	if op.Position != nil {
		ex.Position = *op.Position
	}
	return s.exercises.Update(ctx, ex)
}

func (s *ApplyService) updateSet(ctx context.Context, op *domain.Operation, id string) error {
	set, err := s.sets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if op.Reps != nil {
		set.Reps = *op.Reps
	}
	if op.WeightKg != nil {
		set.WeightKg = *op.WeightKg
	}
	if op.Position != nil {
		set.Position = *op.Position
	}
	return s.sets.Update(ctx, set)
}

func (s *ApplyService) updateRest(ctx context.Context, op *domain.Operation, id string) error {
	rest, err := s.rests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if op.DurationSeconds != nil {
		rest.DurationSeconds = *op.DurationSeconds
	}
	if op.Position != nil {
		rest.Position = *op.Position
	}
	return s.rests.Update(ctx, rest)
}

// deleteExercise removes an exercise and cascades through its timeline,
// tombstoning every removed document.
func (s *ApplyService) deleteExercise(ctx context.Context, id string, now time.Time) error {
	if err := s.exercises.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.tombstone(ctx, id, domain.CollectionExercises, now); err != nil {
		return err
	}
	setIDs, err := s.sets.DeleteByExerciseID(ctx, id)
	if err != nil {
		return err
	}
	for _, setID := range setIDs {
		if err := s.tombstone(ctx, setID, domain.CollectionSets, now); err != nil {
			return err
		}
	}
	restIDs, err := s.rests.DeleteByExerciseID(ctx, id)
	if err != nil {
		return err
	}
	for _, restID := range restIDs {
		if err := s.tombstone(ctx, restID, domain.CollectionRests, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *ApplyService) deleteEntity(ctx context.Context, collection, id string, now time.Time) error {
	var err error
	switch collection {
	case domain.CollectionSets:
		err = s.sets.Delete(ctx, id)
	case domain.CollectionRests:
		err = s.rests.Delete(ctx, id)
	}
	if err != nil {
		return err
	}
	return s.tombstone(ctx, id, collection, now)
}

func (s *ApplyService) tombstone(ctx context.Context, documentID, collection string, now time.Time) error {
	return s.tombstones.Create(ctx, &domain.Tombstone{
		DocumentID: documentID,
		Collection: collection,
		DeletedAt:  now,
	})
}

// reorderTimeline replaces the position assignment for an exercise's
// interleaved timeline; each ordered id may name a set or a rest period.
func (s *ApplyService) reorderTimeline(ctx context.Context, op *domain.Operation, resolve func(string) string, now time.Time) error {
	for pos, raw := range op.OrderedIDs {
		id := resolve(raw)
		err := s.sets.SetPosition(ctx, id, pos, now)
		if errors.Is(err, domain.ErrSetNotFound) || errors.Is(err, domain.ErrInvalidID) {
			err = s.rests.SetPosition(ctx, id, pos, now)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
