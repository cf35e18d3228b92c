package domain

// OpType discriminates the operation union on the wire.
type OpType string

const (
	OpCreateExercise   OpType = "createExercise"
	OpCreateSet        OpType = "createSet"
	OpCreateRest       OpType = "createRest"
	OpUpdateExercise   OpType = "updateExercise"
	OpUpdateSet        OpType = "updateSet"
	OpUpdateRest       OpType = "updateRest"
	OpDeleteExercise   OpType = "deleteExercise"
	OpDeleteSet        OpType = "deleteSet"
	OpDeleteRest       OpType = "deleteRest"
	OpReorderExercises OpType = "reorderExercises"
	OpReorderSets      OpType = "reorderSets"
	OpUpdateDay        OpType = "updateDay"
)

// Operation is one buffered user intent. It is a tagged union flattened into
// a single struct: Type decides which fields are meaningful, pointer fields
// distinguish "not supplied" from zero on updates. Create ops carry TempID,
// the client ULID the document was inserted under; dependent ops in the same
// batch may reference it through ID or ExerciseID before the server has
// assigned a durable id.
type Operation struct {
	Type   OpType `json:"type"`
	TempID string `json:"tempId,omitempty"`

	ID         string `json:"id,omitempty"`
	Date       string `json:"date,omitempty"`
	CatalogID  string `json:"catalogId,omitempty"`
	ExerciseID string `json:"exerciseId,omitempty"`

	Position        *int     `json:"position,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	Reps            *int     `json:"reps,omitempty"`
	WeightKg        *float64 `json:"weightKg,omitempty"`
	DurationSeconds *int     `json:"durationSeconds,omitempty"`
	IsRestDay       *bool    `json:"isRestDay,omitempty"`

	// OrderedIDs carries the FULL sibling order for reorder ops; position
	// becomes the index in this list. Relative moves are not expressible.
	OrderedIDs []string `json:"orderedIds,omitempty"`
}

// IsCreate reports whether the operation introduces a new entity (and so
// must carry a TempID).
func (op *Operation) IsCreate() bool {
	switch op.Type {
	case OpCreateExercise, OpCreateSet, OpCreateRest:
		return true
	}
	return false
}

// Collection returns the collection the operation's entity lives in.
func (op *Operation) Collection() string {
	switch op.Type {
	case OpCreateExercise, OpUpdateExercise, OpDeleteExercise, OpReorderExercises:
		return CollectionExercises
	case OpCreateSet, OpUpdateSet, OpDeleteSet, OpReorderSets:
		return CollectionSets
	case OpCreateRest, OpUpdateRest, OpDeleteRest:
		return CollectionRests
	case OpUpdateDay:
		return CollectionDays
	}
	return ""
}

// Validate checks the operation's schema before it may be enqueued. Invalid
// operations never reach the queue.
func (op *Operation) Validate() error {
	if op.IsCreate() && op.TempID == "" {
		return NewValidationError(op.Collection(), "tempId", "required on create operations")
	}
	switch op.Type {
	case OpCreateExercise:
		if !ValidDate(op.Date) {
			return NewValidationError(CollectionExercises, "date", "must be YYYY-MM-DD")
		}
		if op.CatalogID == "" {
			return NewValidationError(CollectionExercises, "catalogId", "required")
		}
		if op.Position != nil && *op.Position < 0 {
			return NewValidationError(CollectionExercises, "position", "must not be negative")
		}
	case OpCreateSet:
		if op.ExerciseID == "" {
			return NewValidationError(CollectionSets, "exerciseId", "required")
		}
		if op.Reps == nil || *op.Reps < 0 {
			return NewValidationError(CollectionSets, "reps", "required and must not be negative")
		}
		if op.WeightKg == nil || *op.WeightKg < 0 {
			return NewValidationError(CollectionSets, "weightKg", "required and must not be negative")
		}
	case OpCreateRest:
		if op.ExerciseID == "" {
			return NewValidationError(CollectionRests, "exerciseId", "required")
		}
		if op.DurationSeconds == nil || *op.DurationSeconds <= 0 {
			return NewValidationError(CollectionRests, "durationSeconds", "required and must be positive")
		}
	case OpUpdateExercise, OpDeleteExercise, OpUpdateSet, OpDeleteSet, OpUpdateRest, OpDeleteRest:
		if op.ID == "" {
			return NewValidationError(op.Collection(), "id", "required")
		}
		if op.Type == OpUpdateSet {
			if op.Reps != nil && *op.Reps < 0 {
				return NewValidationError(CollectionSets, "reps", "must not be negative")
			}
			if op.WeightKg != nil && *op.WeightKg < 0 {
				return NewValidationError(CollectionSets, "weightKg", "must not be negative")
			}
		}
		if op.Type == OpUpdateRest && op.DurationSeconds != nil && *op.DurationSeconds <= 0 {
			return NewValidationError(CollectionRests, "durationSeconds", "must be positive")
		}
	case OpReorderExercises:
		if !ValidDate(op.Date) {
			return NewValidationError(CollectionExercises, "date", "must be YYYY-MM-DD")
		}
		if err := validOrderedIDs(CollectionExercises, op.OrderedIDs); err != nil {
			return err
		}
	case OpReorderSets:
		if op.ExerciseID == "" {
			return NewValidationError(CollectionSets, "exerciseId", "required")
		}
		if err := validOrderedIDs(CollectionSets, op.OrderedIDs); err != nil {
			return err
		}
	case OpUpdateDay:
		if !ValidDate(op.Date) {
			return NewValidationError(CollectionDays, "date", "must be YYYY-MM-DD")
		}
		if op.IsRestDay == nil {
			return NewValidationError(CollectionDays, "isRestDay", "required")
		}
	default:
		return NewValidationError("operations", "type", "unknown operation type "+string(op.Type))
	}
	return nil
}

func validOrderedIDs(collection string, ids []string) error {
	if len(ids) == 0 {
		return NewValidationError(collection, "orderedIds", "must not be empty")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return NewValidationError(collection, "orderedIds", "must not contain empty ids")
		}
		if _, dup := seen[id]; dup {
			return NewValidationError(collection, "orderedIds", "must not contain duplicates")
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Refs returns pointers to every field that may hold an entity reference
// (and so may carry a tempId in need of rewriting after reconciliation).
// TempID itself is excluded: it names the entity being created, not a
// reference to another one.
func (op *Operation) Refs() []*string {
	refs := make([]*string, 0, 2+len(op.OrderedIDs))
	if op.ID != "" {
		refs = append(refs, &op.ID)
	}
	if op.ExerciseID != "" {
		refs = append(refs, &op.ExerciseID)
	}
	for i := range op.OrderedIDs {
		refs = append(refs, &op.OrderedIDs[i])
	}
	return refs
}

// RewriteIDs swaps every reference found in mapping for its durable id and
// returns how many references were rewritten.
func (op *Operation) RewriteIDs(mapping map[string]string) int {
	n := 0
	for _, ref := range op.Refs() {
		if durable, ok := mapping[*ref]; ok {
			*ref = durable
			n++
		}
	}
	return n
}
