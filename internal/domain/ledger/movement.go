package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Movement is one immutable, signed change to an item's quantity. It has no
// setters: once appended to the ledger it is never changed or removed.
type Movement struct {
	ID              uuid.UUID
	Target          TargetRef
	ParentProductID uuid.UUID
	Type            MovementType
	QuantityDelta   int64
	Remarks         string
	ActorID         *uuid.UUID
	CreatedAt       time.Time
}

// NewMovement builds a movement for the given target, checking that the delta
// agrees with the movement type's sign and that the parent product is set.
func NewMovement(
	target TargetRef,
	parentProductID uuid.UUID,
	movementType MovementType,
	delta int64,
	remarks string,
	actorID *uuid.UUID,
) (*Movement, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if parentProductID == uuid.Nil {
		return nil, shared.NewValidationError("parent product id is required")
	}
	if target.Kind() == TargetProduct && target.ID() != parentProductID {
		return nil, shared.NewValidationError("product movement must reference itself as parent")
	}
	if err := movementType.CheckDelta(delta); err != nil {
		return nil, err
	}

	var actor *uuid.UUID
	if actorID != nil && *actorID != uuid.Nil {
		id := *actorID
		actor = &id
	}

	return &Movement{
		ID:              uuid.New(),
		Target:          target,
		ParentProductID: parentProductID,
		Type:            movementType,
		QuantityDelta:   delta,
		Remarks:         remarks,
		ActorID:         actor,
		CreatedAt:       shared.Now(),
	}, nil
}

// Magnitude returns the absolute quantity moved
func (m *Movement) Magnitude() int64 {
	if m.QuantityDelta < 0 {
		return -m.QuantityDelta
	}
	return m.QuantityDelta
}

// IsIncrease returns true if the movement added stock
func (m *Movement) IsIncrease() bool {
	return m.QuantityDelta > 0
}

// Reconcile sums the deltas of movements. Over the full history of one item
// it equals the item's live quantity.
func Reconcile(movements []*Movement) int64 {
	var total int64
	for _, m := range movements {
		total += m.QuantityDelta
	}
	return total
}
