package domain

import (
	"context"
	"time"
)

// CatalogEntry is a movement in the global exercise catalog. The catalog is
// a read-only dependency of the sync core: exercises reference entries by id
// and never mutate them.
type CatalogEntry struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"` // Unique Index
	MuscleGroup string    `json:"muscle_group" bson:"muscle_group"`
	Equipment   string    `json:"equipment" bson:"equipment"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type CatalogRepository interface {
	Create(ctx context.Context, entry *CatalogEntry) error
	GetByID(ctx context.Context, id string) (*CatalogEntry, error)
	List(ctx context.Context, filter map[string]interface{}) ([]*CatalogEntry, error)
}
