package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDayRepository struct {
	collection *mongo.Collection
}

func NewMongoDayRepository(db *mongo.Database) *MongoDayRepository {
	return &MongoDayRepository{
		collection: db.Collection("workout_days"),
	}
}

func (r *MongoDayRepository) GetByDate(ctx context.Context, userID, date string) (*domain.WorkoutDay, error) {
	var day domain.WorkoutDay
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&day)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrDayNotFound
		}
		return nil, err
	}
	return &day, nil
}

// Ensure materializes the day on read: an atomic upsert keyed on
// (user_id, date) so concurrent ensures from different devices converge on
// one document.
func (r *MongoDayRepository) Ensure(ctx context.Context, userID, date string) (*domain.WorkoutDay, bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID, "date": date}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":     userID,
			"date":        date,
			"is_rest_day": false,
			"is_synced":   true,
			"created_at":  now,
			"updated_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var day domain.WorkoutDay
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&day); err != nil {
		return nil, false, fmt.Errorf("failed to ensure day %s: %w", date, err)
	}
	// BSON datetimes carry millisecond precision, so the round-tripped
	// created_at must be compared against the truncated instant the upsert
	// actually wrote.
	created := day.CreatedAt.Equal(now.Truncate(time.Millisecond))
	return &day, created, nil
}

func (r *MongoDayRepository) SetRestDay(ctx context.Context, userID, date string, isRest bool, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "date": date},
		bson.M{"$set": bson.M{"is_rest_day": isRest, "updated_at": at}})
	if err != nil {
		return fmt.Errorf("failed to toggle rest day %s: %w", date, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrDayNotFound
	}
	return nil
}

func (r *MongoDayRepository) Touch(ctx context.Context, userID, date string, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "date": date},
		bson.M{"$set": bson.M{"updated_at": at}})
	return err
}
