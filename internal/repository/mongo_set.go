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

type MongoSetRepository struct {
	collection *mongo.Collection
}

func NewMongoSetRepository(db *mongo.Database) *MongoSetRepository {
	return &MongoSetRepository{
		collection: db.Collection("workout_sets"),
	}
}

func (r *MongoSetRepository) Create(ctx context.Context, set *domain.WorkoutSet) error {
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now
	set.VolumeKg = set.Volume()
	set.ID = ""

	result, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return fmt.Errorf("failed to create set: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		set.ID = oid.Hex()
	}
	return nil
}

func (r *MongoSetRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSet, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var set domain.WorkoutSet
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&set)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSetNotFound
		}
		return nil, err
	}
	return &set, nil
}

func (r *MongoSetRepository) GetByClientID(ctx context.Context, clientID string) (*domain.WorkoutSet, error) {
	var set domain.WorkoutSet
	err := r.collection.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&set)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSetNotFound
		}
		return nil, err
	}
	return &set, nil
}

func (r *MongoSetRepository) ListByExerciseID(ctx context.Context, exerciseID string) ([]*domain.WorkoutSet, error) {
	opts := options.Find().SetSort(bson.M{"position": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"exercise_id": exerciseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []*domain.WorkoutSet
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// Update rewrites a set. volume_kg is recomputed here too: the server never
// trusts the client's derived value.
func (r *MongoSetRepository) Update(ctx context.Context, set *domain.WorkoutSet) error {
	oid, err := primitive.ObjectIDFromHex(set.ID)
	if err != nil {
		return domain.ErrInvalidID
	}

	set.UpdatedAt = time.Now().UTC()
	set.VolumeKg = set.Volume()
	update := bson.M{
		"$set": bson.M{
			"reps":       set.Reps,
			"weight_kg":  set.WeightKg,
			"volume_kg":  set.VolumeKg,
			"position":   set.Position,
			"updated_at": set.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}

func (r *MongoSetRepository) SetPosition(ctx context.Context, id string, position int, at time.Time) error {
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
		return domain.ErrSetNotFound
	}
	return nil
}

func (r *MongoSetRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}

// DeleteByExerciseID removes every set owned by exerciseID (cascade) and
// returns the removed ids so the caller can tombstone them.
func (r *MongoSetRepository) DeleteByExerciseID(ctx context.Context, exerciseID string) ([]string, error) {
	sets, err := r.ListByExerciseID(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sets))
	for _, set := range sets {
		ids = append(ids, set.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"exercise_id": exerciseID}); err != nil {
		return nil, fmt.Errorf("failed to cascade delete sets: %w", err)
	}
	return ids, nil
}
