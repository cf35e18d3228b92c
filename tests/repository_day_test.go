package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/liftsync/internal/repository"
)

func TestEnsureDayReportsCreation(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	repo := repository.NewMongoDayRepository(db)
	ctx := context.Background()

	day, created, err := repo.Ensure(ctx, "user-7", "2026-08-26")
	require.NoError(t, err)
	assert.True(t, created, "first ensure materializes the day")
	assert.False(t, day.IsRestDay)

	again, created, err := repo.Ensure(ctx, "user-7", "2026-08-26")
	require.NoError(t, err)
	assert.False(t, created, "second ensure finds the existing day")
	assert.Equal(t, day.ID, again.ID)
}
