package service

// In-memory repositories backing the apply service tests. They mirror the
// observable behavior of the Mongo repositories: durable hex ids, client_id
// dedupe lookups and the same not-found sentinels.

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

type idSource struct{ n int }

func (s *idSource) next() string {
	s.n++
	return fmt.Sprintf("%024x", s.n)
}

func dayKey(userID, date string) string { return userID + "/" + date }

type memDayRepo struct {
	ids  *idSource
	days map[string]*domain.WorkoutDay
}

func (r *memDayRepo) Ensure(_ context.Context, userID, date string) (*domain.WorkoutDay, bool, error) {
	if day, ok := r.days[dayKey(userID, date)]; ok {
		return day, false, nil
	}
	now := time.Now().UTC()
	day := &domain.WorkoutDay{
		ID: r.ids.next(), UserID: userID, Date: date,
		IsSynced: true, CreatedAt: now, UpdatedAt: now,
	}
	r.days[dayKey(userID, date)] = day
	return day, true, nil
}

func (r *memDayRepo) GetByDate(_ context.Context, userID, date string) (*domain.WorkoutDay, error) {
	day, ok := r.days[dayKey(userID, date)]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	return day, nil
}

func (r *memDayRepo) SetRestDay(_ context.Context, userID, date string, isRest bool, at time.Time) error {
	day, ok := r.days[dayKey(userID, date)]
	if !ok {
		return domain.ErrDayNotFound
	}
	day.IsRestDay = isRest
	day.UpdatedAt = at
	return nil
}

func (r *memDayRepo) Touch(_ context.Context, userID, date string, at time.Time) error {
	if day, ok := r.days[dayKey(userID, date)]; ok {
		day.UpdatedAt = at
	}
	return nil
}

type memExerciseRepo struct {
	ids  *idSource
	byID map[string]*domain.Exercise
}

func (r *memExerciseRepo) Create(_ context.Context, ex *domain.Exercise) error {
	ex.ID = r.ids.next()
	now := time.Now().UTC()
	ex.CreatedAt = now
	ex.UpdatedAt = now
	r.byID[ex.ID] = ex
	return nil
}

func (r *memExerciseRepo) GetByID(_ context.Context, id string) (*domain.Exercise, error) {
	ex, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrExerciseNotFound
	}
	return ex, nil
}

func (r *memExerciseRepo) GetByClientID(_ context.Context, userID, clientID string) (*domain.Exercise, error) {
	for _, ex := range r.byID {
		if ex.UserID == userID && ex.ClientID == clientID {
			return ex, nil
		}
	}
	return nil, domain.ErrExerciseNotFound
}

func (r *memExerciseRepo) ListByDate(_ context.Context, userID, date string) ([]*domain.Exercise, error) {
	var out []*domain.Exercise
	for _, ex := range r.byID {
		if ex.UserID == userID && ex.Date == date {
			out = append(out, ex)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memExerciseRepo) Update(_ context.Context, ex *domain.Exercise) error {
	if _, ok := r.byID[ex.ID]; !ok {
		return domain.ErrExerciseNotFound
	}
	ex.UpdatedAt = time.Now().UTC()
	r.byID[ex.ID] = ex
	return nil
}

func (r *memExerciseRepo) SetPosition(_ context.Context, id string, position int, at time.Time) error {
	ex, ok := r.byID[id]
	if !ok {
		return domain.ErrExerciseNotFound
	}
	ex.Position = position
	ex.UpdatedAt = at
	return nil
}

func (r *memExerciseRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrExerciseNotFound
	}
	delete(r.byID, id)
	return nil
}

type memSetRepo struct {
	ids  *idSource
	byID map[string]*domain.WorkoutSet
}

func (r *memSetRepo) Create(_ context.Context, set *domain.WorkoutSet) error {
	set.ID = r.ids.next()
	set.VolumeKg = set.Volume()
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now
	r.byID[set.ID] = set
	return nil
}

func (r *memSetRepo) GetByID(_ context.Context, id string) (*domain.WorkoutSet, error) {
	set, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSetNotFound
	}
	return set, nil
}

func (r *memSetRepo) GetByClientID(_ context.Context, clientID string) (*domain.WorkoutSet, error) {
	for _, set := range r.byID {
		if set.ClientID == clientID {
			return set, nil
		}
	}
	return nil, domain.ErrSetNotFound
}

func (r *memSetRepo) ListByExerciseID(_ context.Context, exerciseID string) ([]*domain.WorkoutSet, error) {
	var out []*domain.WorkoutSet
	for _, set := range r.byID {
		if set.ExerciseID == exerciseID {
			out = append(out, set)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memSetRepo) Update(_ context.Context, set *domain.WorkoutSet) error {
	if _, ok := r.byID[set.ID]; !ok {
		return domain.ErrSetNotFound
	}
	set.VolumeKg = set.Volume()
	set.UpdatedAt = time.Now().UTC()
	r.byID[set.ID] = set
	return nil
}

func (r *memSetRepo) SetPosition(_ context.Context, id string, position int, at time.Time) error {
	set, ok := r.byID[id]
	if !ok {
		return domain.ErrSetNotFound
	}
	set.Position = position
	set.UpdatedAt = at
	return nil
}

func (r *memSetRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSetNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memSetRepo) DeleteByExerciseID(ctx context.Context, exerciseID string) ([]string, error) {
	sets, _ := r.ListByExerciseID(ctx, exerciseID)
	ids := make([]string, 0, len(sets))
	for _, set := range sets {
		delete(r.byID, set.ID)
		ids = append(ids, set.ID)
	}
	return ids, nil
}

type memRestRepo struct {
	ids  *idSource
	byID map[string]*domain.RestPeriod
}

func (r *memRestRepo) Create(_ context.Context, rest *domain.RestPeriod) error {
	rest.ID = r.ids.next()
	now := time.Now().UTC()
	rest.CreatedAt = now
	rest.UpdatedAt = now
	r.byID[rest.ID] = rest
	return nil
}

func (r *memRestRepo) GetByID(_ context.Context, id string) (*domain.RestPeriod, error) {
	rest, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRestNotFound
	}
	return rest, nil
}

func (r *memRestRepo) GetByClientID(_ context.Context, clientID string) (*domain.RestPeriod, error) {
	for _, rest := range r.byID {
		if rest.ClientID == clientID {
			return rest, nil
		}
	}
	return nil, domain.ErrRestNotFound
}

func (r *memRestRepo) ListByExerciseID(_ context.Context, exerciseID string) ([]*domain.RestPeriod, error) {
	var out []*domain.RestPeriod
	for _, rest := range r.byID {
		if rest.ExerciseID == exerciseID {
			out = append(out, rest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memRestRepo) Update(_ context.Context, rest *domain.RestPeriod) error {
	if _, ok := r.byID[rest.ID]; !ok {
		return domain.ErrRestNotFound
	}
	rest.UpdatedAt = time.Now().UTC()
	r.byID[rest.ID] = rest
	return nil
}

func (r *memRestRepo) SetPosition(_ context.Context, id string, position int, at time.Time) error {
	rest, ok := r.byID[id]
	if !ok {
		return domain.ErrRestNotFound
	}
	rest.Position = position
	rest.UpdatedAt = at
	return nil
}

func (r *memRestRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrRestNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memRestRepo) DeleteByExerciseID(ctx context.Context, exerciseID string) ([]string, error) {
	rests, _ := r.ListByExerciseID(ctx, exerciseID)
	ids := make([]string, 0, len(rests))
	for _, rest := range rests {
		delete(r.byID, rest.ID)
		ids = append(ids, rest.ID)
	}
	return ids, nil
}

type memTombstoneRepo struct {
	ids     *idSource
	entries []*domain.Tombstone
}

func (r *memTombstoneRepo) Create(_ context.Context, tombstone *domain.Tombstone) error {
	tombstone.ID = r.ids.next()
	r.entries = append(r.entries, tombstone)
	return nil
}

func (r *memTombstoneRepo) ListByCollection(_ context.Context, collection string) ([]*domain.Tombstone, error) {
	var out []*domain.Tombstone
	for _, t := range r.entries {
		if t.Collection == collection {
			out = append(out, t)
		}
	}
	return out, nil
}

type memCatalogRepo struct {
	ids  *idSource
	byID map[string]*domain.CatalogEntry
}

func (r *memCatalogRepo) Create(_ context.Context, entry *domain.CatalogEntry) error {
	entry.ID = r.ids.next()
	r.byID[entry.ID] = entry
	return nil
}

func (r *memCatalogRepo) GetByID(_ context.Context, id string) (*domain.CatalogEntry, error) {
	entry, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCatalogNotFound
	}
	return entry, nil
}

func (r *memCatalogRepo) List(_ context.Context, _ map[string]interface{}) ([]*domain.CatalogEntry, error) {
	out := make([]*domain.CatalogEntry, 0, len(r.byID))
	for _, entry := range r.byID {
		out = append(out, entry)
	}
	return out, nil
}

// memFixture wires an apply service over the in-memory repositories.
type memFixture struct {
	days       *memDayRepo
	exercises  *memExerciseRepo
	sets       *memSetRepo
	rests      *memRestRepo
	tombstones *memTombstoneRepo
	catalog    *memCatalogRepo
	svc        *ApplyService
}

func newMemFixture() *memFixture {
	ids := &idSource{}
	f := &memFixture{
		days:       &memDayRepo{ids: ids, days: map[string]*domain.WorkoutDay{}},
		exercises:  &memExerciseRepo{ids: ids, byID: map[string]*domain.Exercise{}},
		sets:       &memSetRepo{ids: ids, byID: map[string]*domain.WorkoutSet{}},
		rests:      &memRestRepo{ids: ids, byID: map[string]*domain.RestPeriod{}},
		tombstones: &memTombstoneRepo{ids: ids},
		catalog:    &memCatalogRepo{ids: ids, byID: map[string]*domain.CatalogEntry{}},
	}
	f.svc = NewApplyService(f.days, f.exercises, f.sets, f.rests, f.tombstones, f.catalog)
	return f
}

func (f *memFixture) seedCatalog(name string) string {
	entry := &domain.CatalogEntry{Name: name}
	_ = f.catalog.Create(context.Background(), entry)
	return entry.ID
}
