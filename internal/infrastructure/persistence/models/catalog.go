package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null"`
	SKU         *string         `gorm:"column:sku;type:varchar(100);uniqueIndex:idx_products_sku"`
	Description string          `gorm:"type:text"`
	ProductType string          `gorm:"type:varchar(20);not null;index"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostOfGoods decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int64           `gorm:"not null;check:chk_products_quantity,quantity >= 0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity:  m.entity(),
		Name:        m.Name,
		Description: m.Description,
		Type:        catalog.ProductType(m.ProductType),
		BasePrice:   m.BasePrice,
		CostOfGoods: m.CostOfGoods,
		Quantity:    m.Quantity,
	}
	if m.SKU != nil {
		p.SKU = *m.SKU
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.BaseModel = baseFrom(p.BaseEntity)
	m.Name = p.Name
	m.SKU = nil
	if p.SKU != "" {
		sku := p.SKU
		m.SKU = &sku
	}
	m.Description = p.Description
	m.ProductType = string(p.Type)
	m.BasePrice = p.BasePrice
	m.CostOfGoods = p.CostOfGoods
	m.Quantity = p.Quantity
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// VariationModel is the persistence model for the Variation entity.
type VariationModel struct {
	BaseModel
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_variations_attribute,priority:1"`
	AttributeName   string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_variations_attribute,priority:2"`
	AttributeValue  string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_variations_attribute,priority:3"`
	AdditionalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SKUSuffix       string          `gorm:"column:sku_suffix;type:varchar(100)"`
	Quantity        int64           `gorm:"not null;check:chk_variations_quantity,quantity >= 0"`
}

// TableName returns the table name for GORM
func (VariationModel) TableName() string {
	return "variations"
}

// ToDomain converts the persistence model to a domain Variation entity.
func (m *VariationModel) ToDomain() *catalog.Variation {
	return &catalog.Variation{
		BaseEntity:      m.entity(),
		ProductID:       m.ProductID,
		AttributeName:   m.AttributeName,
		AttributeValue:  m.AttributeValue,
		AdditionalPrice: m.AdditionalPrice,
		SKUSuffix:       m.SKUSuffix,
		Quantity:        m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain Variation entity.
func (m *VariationModel) FromDomain(v *catalog.Variation) {
	m.BaseModel = baseFrom(v.BaseEntity)
	m.ProductID = v.ProductID
	m.AttributeName = v.AttributeName
	m.AttributeValue = v.AttributeValue
	m.AdditionalPrice = v.AdditionalPrice
	m.SKUSuffix = v.SKUSuffix
	m.Quantity = v.Quantity
}

// VariationModelFromDomain creates a new persistence model from a domain Variation entity.
func VariationModelFromDomain(v *catalog.Variation) *VariationModel {
	m := &VariationModel{}
	m.FromDomain(v)
	return m
}

// AccessoryModel is the persistence model for the Accessory entity.
type AccessoryModel struct {
	BaseModel
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_accessories_name,priority:1"`
	Name        string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_accessories_name,priority:2"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int64           `gorm:"not null;check:chk_accessories_quantity,quantity >= 0"`
}

// TableName returns the table name for GORM
func (AccessoryModel) TableName() string {
	return "accessories"
}

// ToDomain converts the persistence model to a domain Accessory entity.
func (m *AccessoryModel) ToDomain() *catalog.Accessory {
	return &catalog.Accessory{
		BaseEntity:  m.entity(),
		ProductID:   m.ProductID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Quantity:    m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain Accessory entity.
func (m *AccessoryModel) FromDomain(a *catalog.Accessory) {
	m.BaseModel = baseFrom(a.BaseEntity)
	m.ProductID = a.ProductID
	m.Name = a.Name
	m.Description = a.Description
	m.Price = a.Price
	m.Quantity = a.Quantity
}

// AccessoryModelFromDomain creates a new persistence model from a domain Accessory entity.
func AccessoryModelFromDomain(a *catalog.Accessory) *AccessoryModel {
	m := &AccessoryModel{}
	m.FromDomain(a)
	return m
}
