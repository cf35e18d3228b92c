package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fitstack/liftsync/internal/config"
	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	repo := repository.NewMongoCatalogRepository(db)

	entries := []domain.CatalogEntry{
		// Legs
		{Name: "Barbell Squat", MuscleGroup: "Legs", Equipment: "Barbell"},
		{Name: "Leg Press", MuscleGroup: "Legs", Equipment: "Machine"},
		{Name: "Walking Lunge", MuscleGroup: "Legs", Equipment: "Bodyweight/Dumbbell"},
		{Name: "Leg Extension", MuscleGroup: "Legs", Equipment: "Machine"},
		{Name: "Lying Leg Curl", MuscleGroup: "Legs", Equipment: "Machine"},
		{Name: "Romanian Deadlift", MuscleGroup: "Legs (Hamstrings)", Equipment: "Barbell"},
		{Name: "Calf Raise", MuscleGroup: "Legs (Calves)", Equipment: "Machine"},
		{Name: "Goblet Squat", MuscleGroup: "Legs", Equipment: "Dumbbell"},
		{Name: "Bulgarian Split Squat", MuscleGroup: "Legs", Equipment: "Dumbbell"},

		// Chest
		{Name: "Barbell Bench Press", MuscleGroup: "Chest", Equipment: "Barbell"},
		{Name: "Incline Dumbbell Press", MuscleGroup: "Chest", Equipment: "Dumbbell"},
		{Name: "Push Up", MuscleGroup: "Chest", Equipment: "Bodyweight"},
		{Name: "Cable Fly", MuscleGroup: "Chest", Equipment: "Cable"},
		{Name: "Dips", MuscleGroup: "Chest/Triceps", Equipment: "Bodyweight"},
		{Name: "Machine Chest Press", MuscleGroup: "Chest", Equipment: "Machine"},

		// Back
		{Name: "Pull Up", MuscleGroup: "Back", Equipment: "Bodyweight"},
		{Name: "Lat Pulldown", MuscleGroup: "Back", Equipment: "Cable"},
		{Name: "Barbell Row", MuscleGroup: "Back", Equipment: "Barbell"},
		{Name: "Seated Cable Row", MuscleGroup: "Back", Equipment: "Cable"},
		{Name: "Single Arm Dumbbell Row", MuscleGroup: "Back", Equipment: "Dumbbell"},
		{Name: "Deadlift", MuscleGroup: "Back/Legs", Equipment: "Barbell"},
		{Name: "Face Pull", MuscleGroup: "Back (Rear Delts)", Equipment: "Cable"},

		// Shoulders
		{Name: "Overhead Press", MuscleGroup: "Shoulders", Equipment: "Barbell"},
		{Name: "Dumbbell Shoulder Press", MuscleGroup: "Shoulders", Equipment: "Dumbbell"},
		{Name: "Lateral Raise", MuscleGroup: "Shoulders", Equipment: "Dumbbell"},
		{Name: "Reverse Fly", MuscleGroup: "Shoulders (Rear)", Equipment: "Machine"},
		{Name: "Arnold Press", MuscleGroup: "Shoulders", Equipment: "Dumbbell"},

		// Arms
		{Name: "Barbell Curl", MuscleGroup: "Biceps", Equipment: "Barbell"},
		{Name: "Hammer Curl", MuscleGroup: "Biceps", Equipment: "Dumbbell"},
		{Name: "Preacher Curl", MuscleGroup: "Biceps", Equipment: "Machine/EZ Bar"},
		{Name: "Tricep Pushdown", MuscleGroup: "Triceps", Equipment: "Cable"},
		{Name: "Skullcrusher", MuscleGroup: "Triceps", Equipment: "EZ Bar"},
		{Name: "Overhead Tricep Extension", MuscleGroup: "Triceps", Equipment: "Dumbbell"},

		// Core
		{Name: "Plank", MuscleGroup: "Core", Equipment: "Bodyweight"},
		{Name: "Crunch", MuscleGroup: "Core", Equipment: "Bodyweight"},
		{Name: "Leg Raise", MuscleGroup: "Core", Equipment: "Bodyweight"},
		{Name: "Russian Twist", MuscleGroup: "Core", Equipment: "Bodyweight/Weight"},
		{Name: "Ab Wheel Rollout", MuscleGroup: "Core", Equipment: "Ab Wheel"},
	}

	for _, entry := range entries {
		if err := repo.Create(context.Background(), &entry); err != nil {
			if errors.Is(err, domain.ErrDuplicateCatalogEntry) {
				fmt.Printf("Skipping duplicate: %s\n", entry.Name)
			} else {
				log.Printf("Error creating %s: %v\n", entry.Name, err)
			}
		} else {
			fmt.Printf("Created: %s\n", entry.Name)
		}
	}
	fmt.Println("Seeding Catalog Complete.")
}
