package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Accessory is an add-on sold with a customisable product
type Accessory struct {
	shared.BaseEntity
	ProductID   uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int64
}

// NewAccessory creates an accessory with zero stock
func NewAccessory(productID uuid.UUID, name string) (*Accessory, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product id is required")
	}
	if err := validateName("accessory name", name); err != nil {
		return nil, err
	}

	return &Accessory{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Name:       strings.TrimSpace(name),
		Price:      decimal.Zero,
	}, nil
}

// Target returns the accessory's stock target
func (a *Accessory) Target() ledger.TargetRef {
	return ledger.AccessoryTarget(a.ID)
}

// Rename updates the accessory name
func (a *Accessory) Rename(name string) error {
	if err := validateName("accessory name", name); err != nil {
		return err
	}
	a.Name = strings.TrimSpace(name)
	a.Touch()
	return nil
}

// SetDescription updates the description
func (a *Accessory) SetDescription(description string) {
	a.Description = description
	a.Touch()
}

// SetPrice sets the accessory price
func (a *Accessory) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("accessory price cannot be negative")
	}
	a.Price = price
	a.Touch()
	return nil
}
