package domain

import (
	"context"
	"time"
)

// Collection names shared by the local store, tombstones and the sync protocol.
const (
	CollectionDays      = "workout_days"
	CollectionExercises = "exercises"
	CollectionSets      = "workout_sets"
	CollectionRests     = "rest_periods"
)

// WorkoutDay is one calendar day of training for a user. Days are keyed by
// (user, date) rather than by a generated id, so they never need a tempId:
// both sides of the sync boundary can address them before the first flush.
type WorkoutDay struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Date      string    `json:"date" bson:"date"` // YYYY-MM-DD
	IsRestDay bool      `json:"is_rest_day" bson:"is_rest_day"`
	IsSynced  bool      `json:"is_synced" bson:"is_synced"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ValidDate reports whether date is a well-formed YYYY-MM-DD calendar date.
func ValidDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil && len(date) == 10
}

// DayRepository handles the workout_days collection on the server.
type DayRepository interface {
	// Ensure returns the day for (userID, date), creating it with
	// is_rest_day=false when missing. The created flag tells callers whether
	// a write happened (upsert-on-read, kept explicit on purpose).
	Ensure(ctx context.Context, userID, date string) (*WorkoutDay, bool, error)
	GetByDate(ctx context.Context, userID, date string) (*WorkoutDay, error)
	// SetRestDay flips the rest flag. The rest-day invariant (no exercises
	// on a rest day) is enforced by the apply service, not here.
	SetRestDay(ctx context.Context, userID, date string, isRest bool, at time.Time) error
	Touch(ctx context.Context, userID, date string, at time.Time) error
}

// DayView is the read shape of one day: the day document plus everything it
// owns, with the same field shapes the local store holds.
type DayView struct {
	Day       *WorkoutDay   `json:"day"`
	Exercises []*Exercise   `json:"exercises"`
	Sets      []*WorkoutSet `json:"sets"`
	Rests     []*RestPeriod `json:"rests"`
}
