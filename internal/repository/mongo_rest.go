package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRestRepository struct {
	collection *mongo.Collection
}

func NewMongoRestRepository(db *mongo.Database) *MongoRestRepository {
	return &MongoRestRepository{
		collection: db.Collection("rest_periods"),
	}
}

func (r *MongoRestRepository) Create(ctx context.Context, rest *domain.RestPeriod) error {
	now := time.Now().UTC()
	rest.CreatedAt = now
	rest.UpdatedAt = now
	rest.ID = ""

	result, err := r.collection.InsertOne(ctx, rest)
	if err != nil {
		return fmt.Errorf("failed to create rest period: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rest.ID = oid.Hex()
	}
	return nil
}

func (r *MongoRestRepository) GetByID(ctx context.Context, id string) (*domain.RestPeriod, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var rest domain.RestPeriod
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&rest)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRestNotFound
		}
		return nil, err
	}
	return &rest, nil
}

func (r *MongoRestRepository) GetByClientID(ctx context.Context, clientID string) (*domain.RestPeriod, error) {
	var rest domain.RestPeriod
	err := r.collection.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&rest)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRestNotFound
		}
		return nil, err
	}
	return &rest, nil
}

func (r *MongoRestRepository) ListByExerciseID(ctx context.Context, exerciseID string) ([]*domain.RestPeriod, error) {
	opts := options.Find().SetSort(bson.M{"position": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"exercise_id": exerciseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rests []*domain.RestPeriod
	if err := cursor.All(ctx, &rests); err != nil {
		return nil, err
	}
	return rests, nil
}

func (r *MongoRestRepository) Update(ctx context.Context, rest *domain.RestPeriod) error {
	oid, err := primitive.ObjectIDFromHex(rest.ID)
	if err != nil {
		return domain.ErrInvalidID
	}

	rest.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"duration_seconds": rest.DurationSeconds,
			"position":         rest.Position,
			"updated_at":       rest.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrRestNotFound
	}
	return nil
}

func (r *MongoRestRepository) SetPosition(ctx context.Context, id string, position int, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"position": position, "updated_at": at}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrRestNotFound
	}
	return nil
}

func (r *MongoRestRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrRestNotFound
	}
	return nil
}

func (r *MongoRestRepository) DeleteByExerciseID(ctx context.Context, exerciseID string) ([]string, error) {
	rests, err := r.ListByExerciseID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rests))
	for _, rest := range rests {
		ids = append(ids, rest.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"exercise_id": exerciseID}); err != nil {
		return nil, fmt.Errorf("failed to cascade delete rest periods: %w", err)
	}
	return ids, nil
}
