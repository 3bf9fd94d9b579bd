// Package ledger holds the stock ledger domain: the target reference that
// names a stock-bearing item, the movement taxonomy and the immutable
// movement record.
package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
)

// TargetKind identifies which kind of inventory item a target references
type TargetKind string

const (
	TargetProduct   TargetKind = "product"
	TargetVariation TargetKind = "variation"
	TargetAccessory TargetKind = "accessory"
)

// IsValid reports whether the kind is one of the three item kinds
func (k TargetKind) IsValid() bool {
	switch k {
	case TargetProduct, TargetVariation, TargetAccessory:
		return true
	}
	return false
}

// rank fixes the global lock order across kinds
func (k TargetKind) rank() int {
	switch k {
	case TargetProduct:
		return 0
	case TargetVariation:
		return 1
	case TargetAccessory:
		return 2
	}
	return 9
}

// String returns the kind name
func (k TargetKind) String() string {
	return string(k)
}

// ParseTargetKind parses a kind name, case-insensitively
func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidTarget,
			fmt.Sprintf("unknown target kind %q, expected product, variation or accessory", s))
	}
	return k, nil
}

// TargetRef names exactly one inventory item. The zero value names nothing and
// is rejected by every operation that takes a target.
type TargetRef struct {
	kind TargetKind
	id   uuid.UUID
}

// ProductTarget references a product's own stock counter
func ProductTarget(id uuid.UUID) TargetRef {
	return TargetRef{kind: TargetProduct, id: id}
}

// VariationTarget references a variation's stock counter
func VariationTarget(id uuid.UUID) TargetRef {
	return TargetRef{kind: TargetVariation, id: id}
}

// AccessoryTarget references an accessory's stock counter
func AccessoryTarget(id uuid.UUID) TargetRef {
	return TargetRef{kind: TargetAccessory, id: id}
}

// NewTargetRef builds a target from a kind and id, failing with INVALID_TARGET
// for an unknown kind or a nil id.
func NewTargetRef(kind TargetKind, id uuid.UUID) (TargetRef, error) {
	if !kind.IsValid() {
		return TargetRef{}, shared.NewDomainError(shared.CodeInvalidTarget,
			fmt.Sprintf("unknown target kind %q", kind))
	}
	if id == uuid.Nil {
		return TargetRef{}, shared.NewDomainError(shared.CodeInvalidTarget, "target id is required")
	}
	return TargetRef{kind: kind, id: id}, nil
}

// TargetFromColumns rebuilds a target from the three nullable target columns.
// Exactly one must be set.
func TargetFromColumns(productID, variationID, accessoryID *uuid.UUID) (TargetRef, error) {
	var (
		ref   TargetRef
		count int
	)
	if productID != nil {
		ref, count = ProductTarget(*productID), count+1
	}
	if variationID != nil {
		ref, count = VariationTarget(*variationID), count+1
	}
	if accessoryID != nil {
		ref, count = AccessoryTarget(*accessoryID), count+1
	}
	if count != 1 {
		return TargetRef{}, shared.NewDomainError(shared.CodeInvalidTarget,
			fmt.Sprintf("movement references %d targets, expected exactly one", count))
	}
	return ref, nil
}

// Kind returns the referenced item kind
func (t TargetRef) Kind() TargetKind {
	return t.kind
}

// ID returns the referenced item id
func (t TargetRef) ID() uuid.UUID {
	return t.id
}

// IsZero reports whether the target references nothing
func (t TargetRef) IsZero() bool {
	return t.kind == "" && t.id == uuid.Nil
}

// Validate fails with INVALID_TARGET unless the target names a real kind and id
func (t TargetRef) Validate() error {
	_, err := NewTargetRef(t.kind, t.id)
	return err
}

// Columns spreads the target across the three nullable target columns, leaving
// the two that do not apply nil.
func (t TargetRef) Columns() (productID, variationID, accessoryID *uuid.UUID) {
	id := t.id
	switch t.kind {
	case TargetProduct:
		productID = &id
	case TargetVariation:
		variationID = &id
	case TargetAccessory:
		accessoryID = &id
	}
	return productID, variationID, accessoryID
}

// LockKey returns the key used to serialize writers to this target. Keys sort
// by kind rank, then id, which is the global lock order.
func (t TargetRef) LockKey() string {
	return fmt.Sprintf("stock:%d:%s:%s", t.kind.rank(), t.kind, t.id)
}

// String renders the target as kind:id
func (t TargetRef) String() string {
	if t.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s:%s", t.kind, t.id)
}
