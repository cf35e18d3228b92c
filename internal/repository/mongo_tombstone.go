package repository

import (
	"context"
	"fmt"

	"github.com/fitstack/liftsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoTombstoneRepository struct {
	collection *mongo.Collection
}

func NewMongoTombstoneRepository(db *mongo.Database) *MongoTombstoneRepository {
	return &MongoTombstoneRepository{
		collection: db.Collection("tombstones"),
	}
}

// Create is the only write tombstones ever see.
func (r *MongoTombstoneRepository) Create(ctx context.Context, tombstone *domain.Tombstone) error {
	tombstone.ID = ""
	result, err := r.collection.InsertOne(ctx, tombstone)
	if err != nil {
		return fmt.Errorf("failed to create tombstone: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tombstone.ID = oid.Hex()
	}
	return nil
}

func (r *MongoTombstoneRepository) ListByCollection(ctx context.Context, collection string) ([]*domain.Tombstone, error) {
	opts := options.Find().SetSort(bson.M{"deleted_at": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"collection": collection}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tombstones []*domain.Tombstone
	if err := cursor.All(ctx, &tombstones); err != nil {
		return nil, err
	}
	return tombstones, nil
}
