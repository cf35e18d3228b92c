package domain

import (
	"context"
	"time"
)

// WorkoutSet is one logged set inside an exercise's timeline. VolumeKg is
// derived, never supplied by callers: every insert and update recomputes it
// from reps and weight so it cannot drift from its inputs.
type WorkoutSet struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	ClientID   string    `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ExerciseID string    `json:"exercise_id" bson:"exercise_id"`
	Reps       int       `json:"reps" bson:"reps"`
	WeightKg   float64   `json:"weight_kg" bson:"weight_kg"`
	VolumeKg   float64   `json:"volume_kg" bson:"volume_kg"`
	Position   int       `json:"position" bson:"position"`
	IsSynced   bool      `json:"is_synced" bson:"is_synced"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// Volume computes the derived training volume for the set's current inputs.
func (s *WorkoutSet) Volume() float64 {
	return float64(s.Reps) * s.WeightKg
}

type SetRepository interface {
	Create(ctx context.Context, set *WorkoutSet) error
	GetByID(ctx context.Context, id string) (*WorkoutSet, error)
	GetByClientID(ctx context.Context, clientID string) (*WorkoutSet, error)
	ListByExerciseID(ctx context.Context, exerciseID string) ([]*WorkoutSet, error)
	Update(ctx context.Context, set *WorkoutSet) error
	SetPosition(ctx context.Context, id string, position int, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByExerciseID(ctx context.Context, exerciseID string) ([]string, error)
}
