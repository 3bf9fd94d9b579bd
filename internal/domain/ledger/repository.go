package ledger

import (
	"context"

	"github.com/google/uuid"
)

// MovementRepository is the append-only ledger store. It has no update or
// delete.
type MovementRepository interface {
	// Append persists a new movement
	Append(ctx context.Context, m *Movement) error
	// FindByID returns a movement or NOT_FOUND
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)
	// Find lists movements matching the filter, newest first
	Find(ctx context.Context, filter MovementFilter) ([]Movement, error)
	// Count counts movements matching the filter, ignoring pagination
	Count(ctx context.Context, filter MovementFilter) (int64, error)
	// SumByTarget totals the deltas recorded against a target
	SumByTarget(ctx context.Context, target TargetRef) (int64, error)
}
