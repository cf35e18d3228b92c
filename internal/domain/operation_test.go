package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool      { return &v }

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		wantErr bool
	}{
		{
			name: "valid create exercise",
			op: Operation{
				Type:      OpCreateExercise,
				TempID:    NewLocalID(),
				Date:      "2026-08-26",
				CatalogID: "665f1f77bcf86cd799439011",
			},
		},
		{
			name: "create exercise missing tempId",
			op: Operation{
				Type:      OpCreateExercise,
				Date:      "2026-08-26",
				CatalogID: "665f1f77bcf86cd799439011",
			},
			wantErr: true,
		},
		{
			name: "create exercise bad date",
			op: Operation{
				Type:      OpCreateExercise,
				TempID:    NewLocalID(),
				Date:      "26-08-2026",
				CatalogID: "665f1f77bcf86cd799439011",
			},
			wantErr: true,
		},
		{
			name: "valid create set",
			op: Operation{
				Type:       OpCreateSet,
				TempID:     NewLocalID(),
				ExerciseID: NewLocalID(),
				Reps:       intPtr(5),
				WeightKg:   f64Ptr(100),
			},
		},
		{
			name: "create set negative weight",
			op: Operation{
				Type:       OpCreateSet,
				TempID:     NewLocalID(),
				ExerciseID: NewLocalID(),
				Reps:       intPtr(5),
				WeightKg:   f64Ptr(-1),
			},
			wantErr: true,
		},
		{
			name: "create set missing reps",
			op: Operation{
				Type:       OpCreateSet,
				TempID:     NewLocalID(),
				ExerciseID: NewLocalID(),
				WeightKg:   f64Ptr(100),
			},
			wantErr: true,
		},
		{
			name: "create rest zero duration",
			op: Operation{
				Type:            OpCreateRest,
				TempID:          NewLocalID(),
				ExerciseID:      NewLocalID(),
				DurationSeconds: intPtr(0),
			},
			wantErr: true,
		},
		{
			name: "update set partial fields",
			op: Operation{
				Type: OpUpdateSet,
				ID:   NewLocalID(),
				Reps: intPtr(8),
			},
		},
		{
			name:    "update set missing id",
			op:      Operation{Type: OpUpdateSet, Reps: intPtr(8)},
			wantErr: true,
		},
		{
			name: "reorder with duplicate ids",
			op: Operation{
				Type:       OpReorderSets,
				ExerciseID: NewLocalID(),
				OrderedIDs: []string{"a", "b", "a"},
			},
			wantErr: true,
		},
		{
			name: "reorder empty list",
			op: Operation{
				Type:       OpReorderExercises,
				Date:       "2026-08-26",
				OrderedIDs: []string{},
			},
			wantErr: true,
		},
		{
			name:    "update day missing flag",
			op:      Operation{Type: OpUpdateDay, Date: "2026-08-26"},
			wantErr: true,
		},
		{
			name: "valid update day",
			op:   Operation{Type: OpUpdateDay, Date: "2026-08-26", IsRestDay: boolPtr(true)},
		},
		{
			name:    "unknown type",
			op:      Operation{Type: "frobnicate"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOperationRewriteIDs(t *testing.T) {
	temp := NewLocalID()
	durable := "665f1f77bcf86cd799439011"

	op := Operation{
		Type:       OpCreateSet,
		TempID:     NewLocalID(),
		ExerciseID: temp,
		Reps:       intPtr(5),
		WeightKg:   f64Ptr(100),
	}
	n := op.RewriteIDs(map[string]string{temp: durable})
	assert.Equal(t, 1, n)
	assert.Equal(t, durable, op.ExerciseID)

	// TempID names the entity being created; it must never be rewritten.
	own := op.TempID
	n = op.RewriteIDs(map[string]string{own: durable})
	assert.Equal(t, 0, n)
	assert.Equal(t, own, op.TempID)
}

func TestOperationRewriteOrderedIDs(t *testing.T) {
	t1, t2 := NewLocalID(), NewLocalID()
	op := Operation{
		Type:       OpReorderSets,
		ExerciseID: "665f1f77bcf86cd799439011",
		OrderedIDs: []string{t1, "665f1f77bcf86cd799439012", t2},
	}
	n := op.RewriteIDs(map[string]string{
		t1: "665f1f77bcf86cd799439013",
		t2: "665f1f77bcf86cd799439014",
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		"665f1f77bcf86cd799439013",
		"665f1f77bcf86cd799439012",
		"665f1f77bcf86cd799439014",
	}, op.OrderedIDs)
}

func TestIsDurableID(t *testing.T) {
	assert.True(t, IsDurableID("665f1f77bcf86cd799439011"))
	assert.False(t, IsDurableID(NewLocalID()))
	assert.False(t, IsDurableID(""))
	assert.False(t, IsDurableID("665F1F77BCF86CD799439011")) // uppercase hex is not ours
	assert.False(t, IsDurableID("665f1f77bcf86cd79943901"))  // 23 chars
}

func TestNewLocalID(t *testing.T) {
	a := NewLocalID()
	b := NewLocalID()
	require.Len(t, a, 26)
	require.Len(t, b, 26)
	assert.NotEqual(t, a, b)
	assert.False(t, IsDurableID(a))
}

func TestVolumeDerivation(t *testing.T) {
	set := WorkoutSet{Reps: 5, WeightKg: 100}
	assert.Equal(t, 500.0, set.Volume())

	set = WorkoutSet{Reps: 0, WeightKg: 100}
	assert.Equal(t, 0.0, set.Volume())
}
