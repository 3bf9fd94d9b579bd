package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name            string           `json:"name" binding:"required,notblank,max=255"`
	SKU             string           `json:"sku" binding:"max=100"`
	Description     string           `json:"description" binding:"max=2000"`
	ProductType     string           `json:"product_type" binding:"omitempty,oneof=simple variable customisable"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	CostOfGoods     *decimal.Decimal `json:"cost_of_goods"`
	InitialQuantity int64            `json:"initial_quantity" binding:"min=0"`
	ActorID         *uuid.UUID       `json:"-"`
}

// UpdateProductRequest is a patch; nil fields are left unchanged. Quantity is
// the absolute count wanted on hand.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,notblank,max=255"`
	SKU         *string          `json:"sku" binding:"omitempty,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	ProductType *string          `json:"product_type" binding:"omitempty,oneof=simple variable customisable"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	CostOfGoods *decimal.Decimal `json:"cost_of_goods"`
	Quantity    *int64           `json:"quantity" binding:"omitempty,min=0"`
	Remarks     string           `json:"remarks" binding:"max=500"`
	ActorID     *uuid.UUID       `json:"-"`
}

// IsEmpty reports whether the patch changes nothing
func (r UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.SKU == nil && r.Description == nil && r.ProductType == nil &&
		r.BasePrice == nil && r.CostOfGoods == nil && r.Quantity == nil
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	ProductType string          `json:"product_type"`
	BasePrice   decimal.Decimal `json:"base_price"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	Quantity    int64           `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search      string `form:"search"`
	ProductType string `form:"product_type" binding:"omitempty,oneof=simple variable customisable"`
	InStock     bool   `form:"in_stock"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateVariationRequest represents a request to add a variation to a variable product
type CreateVariationRequest struct {
	ProductID       uuid.UUID        `json:"-"`
	AttributeName   string           `json:"attribute_name" binding:"required,notblank,max=255"`
	AttributeValue  string           `json:"attribute_value" binding:"required,notblank,max=255"`
	AdditionalPrice *decimal.Decimal `json:"additional_price"`
	SKUSuffix       string           `json:"sku_suffix" binding:"max=100"`
	InitialQuantity int64            `json:"initial_quantity" binding:"min=0"`
	ActorID         *uuid.UUID       `json:"-"`
}

// UpdateVariationRequest is a patch for a variation
type UpdateVariationRequest struct {
	AttributeName   *string          `json:"attribute_name" binding:"omitempty,notblank,max=255"`
	AttributeValue  *string          `json:"attribute_value" binding:"omitempty,notblank,max=255"`
	AdditionalPrice *decimal.Decimal `json:"additional_price"`
	SKUSuffix       *string          `json:"sku_suffix" binding:"omitempty,max=100"`
	Quantity        *int64           `json:"quantity" binding:"omitempty,min=0"`
	Remarks         string           `json:"remarks" binding:"max=500"`
	ActorID         *uuid.UUID       `json:"-"`
}

// IsEmpty reports whether the patch changes nothing
func (r UpdateVariationRequest) IsEmpty() bool {
	return r.AttributeName == nil && r.AttributeValue == nil && r.AdditionalPrice == nil &&
		r.SKUSuffix == nil && r.Quantity == nil
}

// VariationResponse represents a variation in API responses
type VariationResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	AttributeName   string          `json:"attribute_name"`
	AttributeValue  string          `json:"attribute_value"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	SKUSuffix       string          `json:"sku_suffix"`
	Quantity        int64           `json:"quantity"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateAccessoryRequest represents a request to add an accessory to a customisable product
type CreateAccessoryRequest struct {
	ProductID       uuid.UUID        `json:"-"`
	Name            string           `json:"name" binding:"required,notblank,max=255"`
	Description     string           `json:"description" binding:"max=2000"`
	Price           *decimal.Decimal `json:"price"`
	InitialQuantity int64            `json:"initial_quantity" binding:"min=0"`
	ActorID         *uuid.UUID       `json:"-"`
}

// UpdateAccessoryRequest is a patch for an accessory
type UpdateAccessoryRequest struct {
	Name        *string          `json:"name" binding:"omitempty,notblank,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int64           `json:"quantity" binding:"omitempty,min=0"`
	Remarks     string           `json:"remarks" binding:"max=500"`
	ActorID     *uuid.UUID       `json:"-"`
}

// IsEmpty reports whether the patch changes nothing
func (r UpdateAccessoryRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil && r.Quantity == nil
}

// AccessoryResponse represents an accessory in API responses
type AccessoryResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DeleteItemResponse lists the zero-out movements written while deleting an
// item and its children.
type DeleteItemResponse struct {
	TargetKind      string                       `json:"target_kind"`
	TargetID        uuid.UUID                    `json:"target_id"`
	RemovedItems    int                          `json:"removed_items"`
	ZeroedQuantity  int64                        `json:"zeroed_quantity"`
	ZeroedMovements []inventory.MovementResponse `json:"zeroed_movements"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		ProductType: p.Type.String(),
		BasePrice:   p.BasePrice,
		CostOfGoods: p.CostOfGoods,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products to responses
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// ToVariationResponse converts a domain Variation to VariationResponse
func ToVariationResponse(v *catalog.Variation) VariationResponse {
	return VariationResponse{
		ID:              v.ID,
		ProductID:       v.ProductID,
		AttributeName:   v.AttributeName,
		AttributeValue:  v.AttributeValue,
		AdditionalPrice: v.AdditionalPrice,
		SKUSuffix:       v.SKUSuffix,
		Quantity:        v.Quantity,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

// ToVariationResponses converts a slice of domain Variations to responses
func ToVariationResponses(variations []catalog.Variation) []VariationResponse {
	responses := make([]VariationResponse, len(variations))
	for i := range variations {
		responses[i] = ToVariationResponse(&variations[i])
	}
	return responses
}

// ToAccessoryResponse converts a domain Accessory to AccessoryResponse
func ToAccessoryResponse(a *catalog.Accessory) AccessoryResponse {
	return AccessoryResponse{
		ID:          a.ID,
		ProductID:   a.ProductID,
		Name:        a.Name,
		Description: a.Description,
		Price:       a.Price,
		Quantity:    a.Quantity,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ToAccessoryResponses converts a slice of domain Accessories to responses
func ToAccessoryResponses(accessories []catalog.Accessory) []AccessoryResponse {
	responses := make([]AccessoryResponse, len(accessories))
	for i := range accessories {
		responses[i] = ToAccessoryResponse(&accessories[i])
	}
	return responses
}
