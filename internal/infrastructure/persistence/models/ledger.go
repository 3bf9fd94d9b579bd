package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
)

// StockMovementModel is the persistence model for the append-only ledger.
// It carries no foreign keys to the item tables: movements outlive the items
// they reference.
type StockMovementModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProductID       *uuid.UUID `gorm:"type:uuid;index;check:chk_stock_movements_single_target,(CASE WHEN product_id IS NULL THEN 0 ELSE 1 END + CASE WHEN variation_id IS NULL THEN 0 ELSE 1 END + CASE WHEN accessory_id IS NULL THEN 0 ELSE 1 END) = 1"`
	VariationID     *uuid.UUID `gorm:"type:uuid;index"`
	AccessoryID     *uuid.UUID `gorm:"type:uuid;index"`
	ParentProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	MovementType    string     `gorm:"type:varchar(40);not null;index"`
	QuantityChanged int64      `gorm:"not null;check:chk_stock_movements_nonzero,quantity_changed <> 0"`
	Remarks         string     `gorm:"type:text"`
	ActorID         *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt       time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain Movement.
func (m *StockMovementModel) ToDomain() (*ledger.Movement, error) {
	target, err := ledger.TargetFromColumns(m.ProductID, m.VariationID, m.AccessoryID)
	if err != nil {
		return nil, err
	}
	return &ledger.Movement{
		ID:              m.ID,
		Target:          target,
		ParentProductID: m.ParentProductID,
		Type:            ledger.MovementType(m.MovementType),
		QuantityDelta:   m.QuantityChanged,
		Remarks:         m.Remarks,
		ActorID:         m.ActorID,
		CreatedAt:       m.CreatedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain Movement.
func (m *StockMovementModel) FromDomain(mv *ledger.Movement) {
	m.ID = mv.ID
	m.ProductID, m.VariationID, m.AccessoryID = mv.Target.Columns()
	m.ParentProductID = mv.ParentProductID
	m.MovementType = string(mv.Type)
	m.QuantityChanged = mv.QuantityDelta
	m.Remarks = mv.Remarks
	m.ActorID = mv.ActorID
	m.CreatedAt = mv.CreatedAt
}

// StockMovementModelFromDomain creates a new persistence model from a domain Movement.
func StockMovementModelFromDomain(mv *ledger.Movement) *StockMovementModel {
	m := &StockMovementModel{}
	m.FromDomain(mv)
	return m
}
