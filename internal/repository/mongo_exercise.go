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

type MongoExerciseRepository struct {
	collection *mongo.Collection
}

func NewMongoExerciseRepository(db *mongo.Database) *MongoExerciseRepository {
	return &MongoExerciseRepository{
		collection: db.Collection("exercises"),
	}
}

func (r *MongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) error {
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	exercise.ID = ""

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		exercise.ID = oid.Hex()
	}
	return nil
}

func (r *MongoExerciseRepository) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var exercise domain.Exercise
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&exercise)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrExerciseNotFound
		}
		return nil, err
	}
	exercise.ID = id
	return &exercise, nil
}

// GetByClientID looks an exercise up by the ULID the client created it
// under. Replayed create operations resolve to the original document here.
func (r *MongoExerciseRepository) GetByClientID(ctx context.Context, userID, clientID string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "client_id": clientID}).Decode(&exercise)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrExerciseNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

func (r *MongoExerciseRepository) ListByDate(ctx context.Context, userID, date string) ([]*domain.Exercise, error) {
	opts := options.Find().SetSort(bson.M{"position": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "date": date}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []*domain.Exercise
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (r *MongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	oid, err := primitive.ObjectIDFromHex(exercise.ID)
	if err != nil {
		return domain.ErrInvalidID
	}

	exercise.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"catalog_id": exercise.CatalogID,
			"notes":      exercise.Notes,
			"position":   exercise.Position,
			"updated_at": exercise.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}

func (r *MongoExerciseRepository) SetPosition(ctx context.Context, id string, position int, at time.Time) error {
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
		return domain.ErrExerciseNotFound
	}
	return nil
}

func (r *MongoExerciseRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}
