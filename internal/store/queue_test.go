package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/liftsync/internal/domain"
)

func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

func createExerciseOp(tempID string) domain.Operation {
	return domain.Operation{
		Type:      domain.OpCreateExercise,
		TempID:    tempID,
		Date:      "2026-08-26",
		CatalogID: "665f1f77bcf86cd799439011",
	}
}

func createSetOp(tempID, exerciseID string) domain.Operation {
	return domain.Operation{
		Type:       domain.OpCreateSet,
		TempID:     tempID,
		ExerciseID: exerciseID,
		Reps:       intPtr(5),
		WeightKg:   f64Ptr(100),
	}
}

func TestQueuePreservesOrder(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	e1, s1 := domain.NewLocalID(), domain.NewLocalID()
	require.NoError(t, q.Enqueue(ctx, createExerciseOp(e1)))
	require.NoError(t, q.Enqueue(ctx, createSetOp(s1, e1)))
	require.NoError(t, q.Enqueue(ctx, domain.Operation{
		Type: domain.OpUpdateSet, ID: s1, Reps: intPtr(8),
	}))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, domain.OpCreateExercise, pending[0].Op.Type)
	assert.Equal(t, domain.OpCreateSet, pending[1].Op.Type)
	assert.Equal(t, domain.OpUpdateSet, pending[2].Op.Type)
	assert.Less(t, pending[0].Seq, pending[1].Seq)
	assert.Less(t, pending[1].Seq, pending[2].Seq)
}

func TestQueueRejectsInvalidOperation(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	err := q.Enqueue(ctx, domain.Operation{Type: domain.OpCreateExercise}) // no tempId, no date
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueNotifyCoalesces(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, createExerciseOp(domain.NewLocalID())))
	}

	// Multiple enqueues collapse into at most one pending signal.
	select {
	case <-q.Notify():
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-q.Notify():
		t.Fatal("expected signals to coalesce")
	default:
	}
}

func TestQueueReleaseRemovesOnlyPrefix(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, createExerciseOp(domain.NewLocalID())))
	snapshot, err := q.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	// An op enqueued after the snapshot was cut survives the release.
	late := createExerciseOp(domain.NewLocalID())
	require.NoError(t, q.Enqueue(ctx, late))

	require.NoError(t, q.Release(ctx, snapshot[len(snapshot)-1].Seq))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, late.TempID, pending[0].Op.TempID)
}

func TestRewritePendingSwapsMappedIDs(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	e1 := domain.NewLocalID()
	durable := "665f1f77bcf86cd799439021"

	// Ops left behind after a flush that introduced e1.
	require.NoError(t, q.Enqueue(ctx, createSetOp(domain.NewLocalID(), e1)))
	require.NoError(t, q.Enqueue(ctx, domain.Operation{
		Type: domain.OpUpdateExercise, ID: e1, Notes: func() *string { v := "heavy"; return &v }(),
	}))

	require.NoError(t, q.RewritePending(ctx, map[string]string{e1: durable}))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, durable, pending[0].Op.ExerciseID)
	assert.Equal(t, durable, pending[1].Op.ID)
}

func TestRewritePendingAllowsRefsIntroducedByEarlierCreate(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	e1 := domain.NewLocalID()
	require.NoError(t, q.Enqueue(ctx, createExerciseOp(e1)))
	require.NoError(t, q.Enqueue(ctx, createSetOp(domain.NewLocalID(), e1)))

	// Nothing mapped, but e1 is introduced by the first pending op; this is
	// a normal next-batch chain, not a leak.
	assert.NoError(t, q.RewritePending(ctx, map[string]string{}))
}

func TestRewritePendingDetectsTempIDLeak(t *testing.T) {
	s := openTestStore(t)
	q := s.Queue()
	ctx := context.Background()

	orphan := domain.NewLocalID()
	require.NoError(t, q.Enqueue(ctx, createSetOp(domain.NewLocalID(), orphan)))

	// orphan is neither durable, nor mapped, nor introduced by an earlier
	// pending create: its creating op was flushed without a mapping entry.
	err := q.RewritePending(ctx, map[string]string{})
	assert.ErrorIs(t, err, domain.ErrTempIDLeak)
}
