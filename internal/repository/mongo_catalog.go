package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoCatalogRepository struct {
	collection *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{
		collection: db.Collection("catalog"),
	}
}

func (r *MongoCatalogRepository) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.ID = ""

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCatalogEntry
		}
		return fmt.Errorf("failed to create catalog entry: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *MongoCatalogRepository) GetByID(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var entry domain.CatalogEntry
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrCatalogNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *MongoCatalogRepository) List(ctx context.Context, filter map[string]interface{}) ([]*domain.CatalogEntry, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}
	cursor, err := r.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*domain.CatalogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
