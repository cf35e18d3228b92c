package domain

import (
	"context"
	"time"
)

// Tombstone records a hard delete so sync can propagate it without the
// entity being resurrected from a stale cache. Tombstones are immutable
// after creation and carry none of the usual bookkeeping fields.
type Tombstone struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	DocumentID string    `json:"document_id" bson:"document_id"`
	Collection string    `json:"collection" bson:"collection"`
	DeletedAt  time.Time `json:"deleted_at" bson:"deleted_at"`
}

type TombstoneRepository interface {
	Create(ctx context.Context, tombstone *Tombstone) error
	ListByCollection(ctx context.Context, collection string) ([]*Tombstone, error)
}
