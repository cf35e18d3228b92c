package domain

import (
	"context"
	"time"
)

// RestPeriod is a timed pause in an exercise's timeline, interleaved with
// sets through the shared position sequence. DurationSeconds is
// authoritative; there is nothing derived here.
type RestPeriod struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	ClientID        string    `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ExerciseID      string    `json:"exercise_id" bson:"exercise_id"`
	DurationSeconds int       `json:"duration_seconds" bson:"duration_seconds"`
	Position        int       `json:"position" bson:"position"`
	IsSynced        bool      `json:"is_synced" bson:"is_synced"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type RestRepository interface {
	Create(ctx context.Context, rest *RestPeriod) error
	GetByID(ctx context.Context, id string) (*RestPeriod, error)
	GetByClientID(ctx context.Context, clientID string) (*RestPeriod, error)
	ListByExerciseID(ctx context.Context, exerciseID string) ([]*RestPeriod, error)
	Update(ctx context.Context, rest *RestPeriod) error
	SetPosition(ctx context.Context, id string, position int, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByExerciseID(ctx context.Context, exerciseID string) ([]string, error)
}
