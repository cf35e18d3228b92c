package store

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fitstack/liftsync/internal/domain"
)

// Subscription is a reactive query over one collection. C delivers the
// collection's current document set immediately on subscribe and again after
// every mutation. A slow receiver only ever misses intermediate states: the
// buffer keeps the newest snapshot.
type Subscription struct {
	C          chan []json.RawMessage
	collection string
	store      *Store
}

// Subscribe registers a reactive query on collection. The initial snapshot is
// read and delivered under the registration lock, so a concurrent mutation's
// notify cannot interleave with it.
func (s *Store) Subscribe(collection string) *Subscription {
	sub := &Subscription{
		C:          make(chan []json.RawMessage, 1),
		collection: collection,
		store:      s,
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs[collection] = append(s.subs[collection], sub)

	if docs, err := s.collectionDocs(context.Background(), collection); err == nil {
		deliver(sub.C, docs)
	}
	return sub
}

// Close unregisters the subscription and closes its channel.
func (sub *Subscription) Close() {
	s := sub.store
	s.subMu.Lock()
	defer s.subMu.Unlock()
	subs := s.subs[sub.collection]
	for i, candidate := range subs {
		if candidate == sub {
			s.subs[sub.collection] = append(subs[:i], subs[i+1:]...)
			close(sub.C)
			return
		}
	}
}

// notify pushes a fresh snapshot of each collection to its subscribers.
func (s *Store) notify(collections ...string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, collection := range collections {
		subs := s.subs[collection]
		if len(subs) == 0 {
			continue
		}
		docs, err := s.collectionDocs(context.Background(), collection)
		if err != nil {
			log.Printf("store: failed to snapshot %s for subscribers: %v", collection, err)
			continue
		}
		for _, sub := range subs {
			deliver(sub.C, docs)
		}
	}
}

// deliver replaces whatever snapshot the buffer holds with docs, never
// blocking. Every sender holds subMu, so the only other party is the
// receiver, which can only free space between retries.
func deliver(ch chan []json.RawMessage, docs []json.RawMessage) {
	for {
		select {
		case ch <- docs:
			return
		default:
			// Drop the stale snapshot and retry.
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (s *Store) collectionDocs(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var query string
	switch collection {
	case domain.CollectionDays:
		query = `SELECT id, date, is_rest_day, is_synced, created_at, updated_at FROM workout_days ORDER BY date`
	case domain.CollectionExercises:
		query = `SELECT id, date, catalog_id, notes, position, is_synced, created_at, updated_at FROM exercises ORDER BY date, position`
	case domain.CollectionSets:
		query = `SELECT id, exercise_id, reps, weight_kg, volume_kg, position, is_synced, created_at, updated_at FROM workout_sets ORDER BY exercise_id, position`
	case domain.CollectionRests:
		query = `SELECT id, exercise_id, duration_seconds, position, is_synced, created_at, updated_at FROM rest_periods ORDER BY exercise_id, position`
	default:
		return nil, domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc interface{}
		switch collection {
		case domain.CollectionDays:
			var day domain.WorkoutDay
			err = rows.Scan(&day.ID, &day.Date, &day.IsRestDay, &day.IsSynced, &day.CreatedAt, &day.UpdatedAt)
			doc = &day
		case domain.CollectionExercises:
			var ex domain.Exercise
			err = rows.Scan(&ex.ID, &ex.Date, &ex.CatalogID, &ex.Notes, &ex.Position, &ex.IsSynced, &ex.CreatedAt, &ex.UpdatedAt)
			doc = &ex
		case domain.CollectionSets:
			var set domain.WorkoutSet
			err = rows.Scan(&set.ID, &set.ExerciseID, &set.Reps, &set.WeightKg, &set.VolumeKg, &set.Position, &set.IsSynced, &set.CreatedAt, &set.UpdatedAt)
			doc = &set
		case domain.CollectionRests:
			var rest domain.RestPeriod
			err = rows.Scan(&rest.ID, &rest.ExerciseID, &rest.DurationSeconds, &rest.Position, &rest.IsSynced, &rest.CreatedAt, &rest.UpdatedAt)
			doc = &rest
		}
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, raw)
	}
	return docs, rows.Err()
}
