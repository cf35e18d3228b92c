package domain

import (
	"context"
	"time"
)

// Exercise is one catalog movement performed on a day. Position is zero-based
// among the day's exercises; a reorder assigns it densely, while a delete may
// leave gaps until the next reorder (relative order is unaffected). ClientID
// keeps the ULID the frontend created it under, so a replayed create maps
// back to the same document.
type Exercise struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	ClientID  string    `json:"client_id,omitempty" bson:"client_id,omitempty"`
	UserID    string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Date      string    `json:"date" bson:"date"`
	CatalogID string    `json:"catalog_id" bson:"catalog_id"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Position  int       `json:"position" bson:"position"`
	IsSynced  bool      `json:"is_synced" bson:"is_synced"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *Exercise) error
	GetByID(ctx context.Context, id string) (*Exercise, error)
	// GetByClientID retrieves an exercise by the ULID the client created it
	// under (dual-identity lookup for idempotent replays).
	GetByClientID(ctx context.Context, userID, clientID string) (*Exercise, error)
	ListByDate(ctx context.Context, userID, date string) ([]*Exercise, error)
	Update(ctx context.Context, exercise *Exercise) error
	SetPosition(ctx context.Context, id string, position int, at time.Time) error
	Delete(ctx context.Context, id string) error
}
