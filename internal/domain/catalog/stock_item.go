package catalog

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// StockItem is the engine's view of any stock-bearing row: its target, the
// product it belongs to and the live quantity counter.
type StockItem struct {
	Target          ledger.TargetRef
	ParentProductID uuid.UUID
	// ProductType is only loaded for product targets
	ProductType ProductType
	Quantity    int64
}

// CheckStockBearing fails with TYPE_MISMATCH when the item's counter is not
// where its product keeps stock, e.g. the main quantity of a variable product.
func (s *StockItem) CheckStockBearing() error {
	if s.Target.Kind() == ledger.TargetProduct && s.ProductType != ProductTypeSimple {
		return shared.NewTypeMismatchError(
			"%s product %s keeps stock on its %ss, not on the product",
			s.ProductType, s.Target.ID(), s.ProductType.ChildKind())
	}
	return nil
}

// Apply returns the quantity after adding delta, failing with
// INSUFFICIENT_STOCK instead of going below zero. An increase past the
// int64 range is a VALIDATION_ERROR.
func (s *StockItem) Apply(delta int64) (int64, error) {
	if delta > 0 && s.Quantity > math.MaxInt64-delta {
		return s.Quantity, shared.NewValidationError(
			"quantity for %s would exceed %d: have %d, adding %d", s.Target, int64(math.MaxInt64), s.Quantity, delta)
	}
	next := s.Quantity + delta
	if next < 0 {
		return s.Quantity, shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %s: available %d, requested %d", s.Target, s.Quantity, -delta))
	}
	return next, nil
}

