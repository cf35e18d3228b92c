package localsync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/liftsync/internal/domain"
	"github.com/fitstack/liftsync/internal/store"
)

func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

// fakeApplier records every batch it sees and answers from a script.
type fakeApplier struct {
	batches []*domain.Batch
	// respond builds the answer for the nth call (0-based).
	respond func(call int, batch *domain.Batch) (*domain.BatchResponse, error)
}

func (f *fakeApplier) Apply(_ context.Context, batch *domain.Batch) (*domain.BatchResponse, error) {
	call := len(f.batches)
	f.batches = append(f.batches, batch)
	return f.respond(call, batch)
}

// minted memoizes tempId to durable id assignments so replaying mapCreates
// over the same batch answers identically, like a real idempotent server.
var (
	mintedMu sync.Mutex
	minted   = map[string]string{}
	mintSeq  uint64
)

func mintObjectID(tempID string) string {
	mintedMu.Lock()
	defer mintedMu.Unlock()
	if id, ok := minted[tempID]; ok {
		return id
	}
	mintSeq++
	id := fmt.Sprintf("%024x", mintSeq)
	minted[tempID] = id
	return id
}

// mapCreates answers a batch by minting a durable id for every create op.
func mapCreates(batch *domain.Batch) *domain.BatchResponse {
	resp := &domain.BatchResponse{Applied: true, UpdatedAt: time.Now().UTC()}
	for _, op := range batch.Ops {
		if !op.IsCreate() {
			continue
		}
		pair := domain.IDPair{TempID: op.TempID, ID: mintObjectID(op.TempID)}
		switch op.Type {
		case domain.OpCreateExercise:
			resp.Mapping.Exercises = append(resp.Mapping.Exercises, pair)
		case domain.OpCreateSet:
			resp.Mapping.Sets = append(resp.Mapping.Sets, pair)
		case domain.OpCreateRest:
			resp.Mapping.Rests = append(resp.Mapping.Rests, pair)
		}
	}
	return resp
}

func newTestClient(t *testing.T, applier Applier) (*Client, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewClient(st, applier, DefaultConfig(), nil), st
}

func enqueueExerciseWithSet(t *testing.T, st *store.Store) (exID, setID string) {
	t.Helper()
	ctx := context.Background()

	ex := &domain.Exercise{Date: "2026-08-26", CatalogID: "665f1f77bcf86cd799439011"}
	require.NoError(t, st.InsertExercise(ctx, ex))
	require.NoError(t, st.Queue().Enqueue(ctx, domain.Operation{
		Type:      domain.OpCreateExercise,
		TempID:    ex.ID,
		Date:      ex.Date,
		CatalogID: ex.CatalogID,
	}))

	set := &domain.WorkoutSet{ExerciseID: ex.ID, Reps: 5, WeightKg: 100}
	require.NoError(t, st.InsertSet(ctx, set))
	require.NoError(t, st.Queue().Enqueue(ctx, domain.Operation{
		Type:       domain.OpCreateSet,
		TempID:     set.ID,
		ExerciseID: ex.ID,
		Reps:       intPtr(set.Reps),
		WeightKg:   f64Ptr(set.WeightKg),
	}))
	return ex.ID, set.ID
}

func TestFlushReconcilesTempIDChain(t *testing.T) {
	applier := &fakeApplier{respond: func(_ int, b *domain.Batch) (*domain.BatchResponse, error) {
		return mapCreates(b), nil
	}}
	client, st := newTestClient(t, applier)
	ctx := context.Background()

	exTemp, setTemp := enqueueExerciseWithSet(t, st)

	require.NoError(t, client.Flush(ctx, FlushManual))

	// The batch carried the dependent create still referencing the tempId.
	require.Len(t, applier.batches, 1)
	sent := applier.batches[0]
	require.Len(t, sent.Ops, 2)
	assert.Equal(t, exTemp, sent.Ops[1].ExerciseID)

	// Locally both documents now live under durable ids and are synced.
	pairs := mapCreates(sent).Mapping.Pairs()
	ex, err := st.GetExercise(ctx, pairs[exTemp])
	require.NoError(t, err)
	assert.True(t, ex.IsSynced)

	set, err := st.GetSet(ctx, pairs[setTemp])
	require.NoError(t, err)
	assert.True(t, set.IsSynced)
	assert.Equal(t, pairs[exTemp], set.ExerciseID)

	n, err := st.Queue().Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "applied prefix must be released")
}

func TestFlushEmptyQueueIsNoOp(t *testing.T) {
	applier := &fakeApplier{respond: func(_ int, b *domain.Batch) (*domain.BatchResponse, error) {
		return mapCreates(b), nil
	}}
	client, _ := newTestClient(t, applier)

	require.NoError(t, client.Flush(context.Background(), FlushManual))
	assert.Empty(t, applier.batches)
}

func TestRetryReusesKeyAndSnapshotBoundary(t *testing.T) {
	applier := &fakeApplier{respond: func(call int, b *domain.Batch) (*domain.BatchResponse, error) {
		if call == 0 {
			return nil, errors.New("connection reset")
		}
		return mapCreates(b), nil
	}}
	client, st := newTestClient(t, applier)
	ctx := context.Background()

	enqueueExerciseWithSet(t, st)

	err := client.Flush(ctx, FlushAuto)
	require.Error(t, err)
	key := client.PendingKey()
	require.NotEmpty(t, key)

	// New activity between attempts must stay out of the retried batch.
	ex := &domain.Exercise{Date: "2026-08-27", CatalogID: "665f1f77bcf86cd799439011"}
	require.NoError(t, st.InsertExercise(ctx, ex))
	require.NoError(t, st.Queue().Enqueue(ctx, domain.Operation{
		Type: domain.OpCreateExercise, TempID: ex.ID, Date: ex.Date, CatalogID: ex.CatalogID,
	}))

	require.NoError(t, client.Flush(ctx, FlushAuto))

	require.Len(t, applier.batches, 2)
	assert.Equal(t, key, applier.batches[1].IdempotencyKey, "retry must reuse the attempt's key")
	assert.Len(t, applier.batches[1].Ops, 2, "late op must not join the retried batch")
	assert.Empty(t, client.PendingKey(), "attempt must clear after success")

	// The late op flushes as its own batch under a fresh key.
	require.NoError(t, client.Flush(ctx, FlushAuto))
	require.Len(t, applier.batches, 3)
	assert.NotEqual(t, key, applier.batches[2].IdempotencyKey)
	assert.Len(t, applier.batches[2].Ops, 1)
}

func TestFlushNotAppliedIsBatchRejected(t *testing.T) {
	applier := &fakeApplier{respond: func(_ int, _ *domain.Batch) (*domain.BatchResponse, error) {
		return &domain.BatchResponse{Applied: false}, nil
	}}
	client, st := newTestClient(t, applier)
	ctx := context.Background()

	enqueueExerciseWithSet(t, st)

	err := client.Flush(ctx, FlushManual)
	assert.ErrorIs(t, err, domain.ErrBatchRejected)

	n, err := st.Queue().Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "rejected ops stay queued for inspection")
}

func TestReconcileFailureDoesNotPinNextFlush(t *testing.T) {
	var st *store.Store
	var exTemp string

	notes := "drop sets"
	applier := &fakeApplier{respond: func(call int, b *domain.Batch) (*domain.BatchResponse, error) {
		if call > 0 {
			return mapCreates(b), nil
		}
		// Acknowledge without a mapping while a dependent op lands behind the
		// snapshot; reconciliation will trip over the unresolved tempId after
		// the applied prefix is already released.
		err := st.Queue().Enqueue(context.Background(), domain.Operation{
			Type: domain.OpUpdateExercise, ID: exTemp, Notes: &notes,
		})
		if err != nil {
			return nil, err
		}
		return &domain.BatchResponse{Applied: true, UpdatedAt: time.Now().UTC()}, nil
	}}
	client, st := newTestClient(t, applier)
	ctx := context.Background()

	exTemp, _ = enqueueExerciseWithSet(t, st)

	err := client.Flush(ctx, FlushManual)
	require.ErrorIs(t, err, domain.ErrTempIDLeak)
	key := applier.batches[0].IdempotencyKey

	// The acknowledged attempt is spent: the next flush must carry the
	// stranded op under a fresh key, not an empty batch under the old one.
	require.NoError(t, client.Flush(ctx, FlushManual))
	require.Len(t, applier.batches, 2)
	require.Len(t, applier.batches[1].Ops, 1)
	assert.Equal(t, domain.OpUpdateExercise, applier.batches[1].Ops[0].Type)
	assert.NotEqual(t, key, applier.batches[1].IdempotencyKey)
}

func TestOpEnqueuedMidFlightIsRewrittenByReconcile(t *testing.T) {
	var client *Client
	var st *store.Store
	var exTemp string

	notes := "felt strong"
	applier := &fakeApplier{respond: func(_ int, b *domain.Batch) (*domain.BatchResponse, error) {
		// Lands after the snapshot was cut, before reconciliation: the queued
		// update still references the exercise by its tempId.
		err := st.Queue().Enqueue(context.Background(), domain.Operation{
			Type: domain.OpUpdateExercise, ID: exTemp, Notes: &notes,
		})
		if err != nil {
			return nil, err
		}
		return mapCreates(b), nil
	}}
	client, st = newTestClient(t, applier)
	ctx := context.Background()

	exTemp, _ = enqueueExerciseWithSet(t, st)

	require.NoError(t, client.Flush(ctx, FlushManual))

	pending, err := st.Queue().Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "mid-flight op belongs to the next batch")
	assert.True(t, domain.IsDurableID(pending[0].Op.ID),
		"reconcile must rewrite the queued reference to the durable id")
}
