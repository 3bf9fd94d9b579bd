package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence.
// Create and Update never write the quantity column.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll finds products matching the filter. Filters may carry "product_type".
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsBySKU checks whether another product already uses the SKU
	ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error)

	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// VariationRepository defines the interface for variation persistence
type VariationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Variation, error)

	// FindByProduct lists a product's variations ordered by id
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Variation, error)

	// ExistsByAttribute checks the (product, attribute name, attribute value) uniqueness rule
	ExistsByAttribute(ctx context.Context, productID uuid.UUID, name, value string, excludeID *uuid.UUID) (bool, error)

	Create(ctx context.Context, variation *Variation) error
	Update(ctx context.Context, variation *Variation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccessoryRepository defines the interface for accessory persistence
type AccessoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Accessory, error)

	// FindByProduct lists a product's accessories ordered by id
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Accessory, error)

	// ExistsByName checks the (product, name) uniqueness rule
	ExistsByName(ctx context.Context, productID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)

	Create(ctx context.Context, accessory *Accessory) error
	Update(ctx context.Context, accessory *Accessory) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockItemRepository reads and writes the quantity counter of any item kind.
// It is the only write path to a quantity column.
type StockItemRepository interface {
	// FindForUpdate loads the item behind target, row-locking it where the
	// database supports it. Returns NOT_FOUND when the row is absent.
	FindForUpdate(ctx context.Context, target ledger.TargetRef) (*StockItem, error)

	// UpdateQuantity overwrites the counter of the item behind target
	UpdateQuantity(ctx context.Context, target ledger.TargetRef, quantity int64) error
}
