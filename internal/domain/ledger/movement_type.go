package ledger

import (
	"math"
	"sort"

	"github.com/stockledger/backend/internal/domain/shared"
)

// MovementType classifies a stock movement and fixes its direction
type MovementType string

const (
	// MovementInitialStock records the opening quantity of a new item
	MovementInitialStock MovementType = "initial_stock"
	// MovementAdjustmentIn is a manual positive correction
	MovementAdjustmentIn MovementType = "adjustment_in"
	// MovementReturn puts returned goods back on hand
	MovementReturn MovementType = "return_adj"
	// MovementAdjustmentOut is a manual negative correction
	MovementAdjustmentOut MovementType = "adjustment_out"
	// MovementDamaged writes off damaged goods
	MovementDamaged MovementType = "damaged"
	// MovementSale removes sold goods
	MovementSale MovementType = "sale_adj"
	// MovementDeleteZeroOut zeroes remaining stock when an item is deleted
	MovementDeleteZeroOut MovementType = "adjustment_out_delete"
)

type movementRule struct {
	sign   int64
	manual bool
}

// movementRules is the single source of truth for movement direction and for
// which types a caller may submit directly. Every MovementType has exactly one
// entry.
var movementRules = map[MovementType]movementRule{
	MovementInitialStock:  {sign: +1, manual: true},
	MovementAdjustmentIn:  {sign: +1, manual: true},
	MovementReturn:        {sign: +1, manual: true},
	MovementAdjustmentOut: {sign: -1, manual: true},
	MovementDamaged:       {sign: -1, manual: true},
	MovementSale:          {sign: -1, manual: true},
	MovementDeleteZeroOut: {sign: -1, manual: false},
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	_, ok := movementRules[t]
	return ok
}

// IsManual reports whether the type may be submitted through a manual stock
// adjustment. Lifecycle types such as adjustment_out_delete are internal.
func (t MovementType) IsManual() bool {
	return movementRules[t].manual
}

// Sign returns +1 for inbound types, -1 for outbound types and 0 for unknown types
func (t MovementType) Sign() int64 {
	return movementRules[t].sign
}

// IsIncrease returns true if this movement type increases quantity
func (t MovementType) IsIncrease() bool {
	return t.Sign() > 0
}

// IsDecrease returns true if this movement type decreases quantity
func (t MovementType) IsDecrease() bool {
	return t.Sign() < 0
}

// Delta converts an unsigned magnitude into the signed quantity change for
// this type.
func (t MovementType) Delta(magnitude uint) (int64, error) {
	if !t.IsValid() {
		return 0, shared.NewValidationError("unknown movement type %q", t)
	}
	if magnitude == 0 {
		return 0, shared.NewValidationError("quantity must be a positive integer")
	}
	if uint64(magnitude) > math.MaxInt64 {
		return 0, shared.NewValidationError("quantity %d is out of range", magnitude)
	}
	return t.Sign() * int64(magnitude), nil
}

// CheckDelta fails unless delta is non-zero and points in this type's direction
func (t MovementType) CheckDelta(delta int64) error {
	if !t.IsValid() {
		return shared.NewValidationError("unknown movement type %q", t)
	}
	if delta == 0 {
		return shared.NewValidationError("movement quantity cannot be zero")
	}
	if (delta > 0) != t.IsIncrease() {
		return shared.NewValidationError("%s movements must be %s, got %d", t, directionName(t.Sign()), delta)
	}
	return nil
}

// AdjustmentTypeFor picks the manual correction type for a signed delta
func AdjustmentTypeFor(delta int64) MovementType {
	if delta < 0 {
		return MovementAdjustmentOut
	}
	return MovementAdjustmentIn
}

// ParseMovementType parses and validates a movement type name
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.IsValid() {
		return "", shared.NewValidationError("invalid movement type %q", s)
	}
	return t, nil
}

// MovementTypes returns every known movement type in name order
func MovementTypes() []MovementType {
	types := make([]MovementType, 0, len(movementRules))
	for t := range movementRules {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ManualMovementTypes returns the types accepted by manual adjustments
func ManualMovementTypes() []MovementType {
	var types []MovementType
	for _, t := range MovementTypes() {
		if t.IsManual() {
			types = append(types, t)
		}
	}
	return types
}

func directionName(sign int64) string {
	if sign > 0 {
		return "positive"
	}
	return "negative"
}

