package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Variation is one attribute combination of a variable product, e.g. Color=Red
type Variation struct {
	shared.BaseEntity
	ProductID       uuid.UUID
	AttributeName   string
	AttributeValue  string
	AdditionalPrice decimal.Decimal
	SKUSuffix       string
	Quantity        int64
}

// NewVariation creates a variation with zero stock
func NewVariation(productID uuid.UUID, attributeName, attributeValue string) (*Variation, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product id is required")
	}
	if err := validateName("attribute name", attributeName); err != nil {
		return nil, err
	}
	if err := validateName("attribute value", attributeValue); err != nil {
		return nil, err
	}

	return &Variation{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		AttributeName:   strings.TrimSpace(attributeName),
		AttributeValue:  strings.TrimSpace(attributeValue),
		AdditionalPrice: decimal.Zero,
	}, nil
}

// Target returns the variation's stock target
func (v *Variation) Target() ledger.TargetRef {
	return ledger.VariationTarget(v.ID)
}

// SetAttribute changes the attribute pair
func (v *Variation) SetAttribute(name, value string) error {
	if err := validateName("attribute name", name); err != nil {
		return err
	}
	if err := validateName("attribute value", value); err != nil {
		return err
	}
	v.AttributeName = strings.TrimSpace(name)
	v.AttributeValue = strings.TrimSpace(value)
	v.Touch()
	return nil
}

// SetAdditionalPrice sets the price difference from the parent's base price.
// It may be negative for cheaper variations.
func (v *Variation) SetAdditionalPrice(price decimal.Decimal) {
	v.AdditionalPrice = price
	v.Touch()
}

// SetSKUSuffix sets the suffix appended to the parent SKU
func (v *Variation) SetSKUSuffix(suffix string) error {
	if err := validateSKU(suffix); err != nil {
		return err
	}
	v.SKUSuffix = normalizeSKU(suffix)
	v.Touch()
	return nil
}

// FullSKU joins the parent SKU and this variation's suffix
func (v *Variation) FullSKU(parentSKU string) string {
	if v.SKUSuffix == "" {
		return parentSKU
	}
	if parentSKU == "" {
		return v.SKUSuffix
	}
	return parentSKU + "-" + v.SKUSuffix
}
