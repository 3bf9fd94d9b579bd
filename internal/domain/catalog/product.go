// Package catalog holds the three stock-bearing item kinds: products, their
// variations and their accessories. Entities expose their quantity for
// reading only; it changes solely through the adjustment engine.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// ProductType decides where a product keeps its stock
type ProductType string

const (
	// ProductTypeSimple products hold stock on the product itself
	ProductTypeSimple ProductType = "simple"
	// ProductTypeVariable products hold stock on their variations
	ProductTypeVariable ProductType = "variable"
	// ProductTypeCustomisable products hold stock on their accessories
	ProductTypeCustomisable ProductType = "customisable"
)

// IsValid returns true if the product type is known
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeSimple, ProductTypeVariable, ProductTypeCustomisable:
		return true
	}
	return false
}

// String returns the string representation of ProductType
func (t ProductType) String() string {
	return string(t)
}

// ChildKind returns the item kind that carries stock for this product type,
// or the product kind itself for simple products.
func (t ProductType) ChildKind() ledger.TargetKind {
	switch t {
	case ProductTypeVariable:
		return ledger.TargetVariation
	case ProductTypeCustomisable:
		return ledger.TargetAccessory
	}
	return ledger.TargetProduct
}

// ParseProductType parses a product type, defaulting an empty value to simple
func ParseProductType(s string) (ProductType, error) {
	if s == "" {
		return ProductTypeSimple, nil
	}
	t := ProductType(strings.ToLower(s))
	if !t.IsValid() {
		return "", shared.NewValidationError("invalid product type %q, expected simple, variable or customisable", s)
	}
	return t, nil
}

// Product is the catalog aggregate root. Variations and accessories hang off it.
type Product struct {
	shared.BaseEntity
	Name        string
	SKU         string
	Description string
	Type        ProductType
	BasePrice   decimal.Decimal
	CostOfGoods decimal.Decimal
	Quantity    int64
}

// NewProduct creates a product with zero stock
func NewProduct(name, sku string, productType ProductType) (*Product, error) {
	if err := validateName("product name", name); err != nil {
		return nil, err
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if !productType.IsValid() {
		return nil, shared.NewValidationError("invalid product type %q", productType)
	}

	return &Product{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        strings.TrimSpace(name),
		SKU:         normalizeSKU(sku),
		Type:        productType,
		BasePrice:   decimal.Zero,
		CostOfGoods: decimal.Zero,
	}, nil
}

// Target returns the stock target of the product's own counter
func (p *Product) Target() ledger.TargetRef {
	return ledger.ProductTarget(p.ID)
}

// HoldsOwnStock reports whether the product's own quantity is stock-bearing
func (p *Product) HoldsOwnStock() bool {
	return p.Type == ProductTypeSimple
}

// Rename updates the product name
func (p *Product) Rename(name string) error {
	if err := validateName("product name", name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Touch()
	return nil
}

// SetSKU changes the SKU; an empty SKU clears it
func (p *Product) SetSKU(sku string) error {
	if err := validateSKU(sku); err != nil {
		return err
	}
	p.SKU = normalizeSKU(sku)
	p.Touch()
	return nil
}

// SetDescription updates the description
func (p *Product) SetDescription(description string) {
	p.Description = description
	p.Touch()
}

// SetPrices sets base price and cost of goods
func (p *Product) SetPrices(basePrice, costOfGoods decimal.Decimal) error {
	if basePrice.IsNegative() {
		return shared.NewValidationError("base price cannot be negative")
	}
	if costOfGoods.IsNegative() {
		return shared.NewValidationError("cost of goods cannot be negative")
	}
	p.BasePrice = basePrice
	p.CostOfGoods = costOfGoods
	p.Touch()
	return nil
}

// ChangeType switches the product type. Moving away from simple requires the
// product's own stock to be empty, since that counter stops being stock-bearing.
// Callers must also ensure the product has no children.
func (p *Product) ChangeType(productType ProductType) error {
	if !productType.IsValid() {
		return shared.NewValidationError("invalid product type %q", productType)
	}
	if productType == p.Type {
		return nil
	}
	if p.Type == ProductTypeSimple && p.Quantity != 0 {
		return shared.NewTypeMismatchError(
			"product %s still holds %d units and cannot become %s", p.ID, p.Quantity, productType)
	}
	p.Type = productType
	p.Touch()
	return nil
}

// AcceptsChild fails with TYPE_MISMATCH unless the product type carries stock
// in children of the given kind.
func (p *Product) AcceptsChild(kind ledger.TargetKind) error {
	if kind == ledger.TargetProduct || p.Type.ChildKind() != kind {
		return shared.NewTypeMismatchError("%s product %s cannot have %s children", p.Type, p.ID, kind)
	}
	return nil
}

func validateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("%s cannot be empty", field)
	}
	if len(name) > 255 {
		return shared.NewValidationError("%s cannot exceed 255 characters", field)
	}
	return nil
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if len(sku) > 100 {
		return shared.NewValidationError("SKU cannot exceed 100 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.') {
			return shared.NewValidationError("SKU can only contain letters, numbers, dots, underscores and hyphens")
		}
	}
	return nil
}

func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
