package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository reads and writes the quantity column of the three
// item tables behind a single target-addressed interface.
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

type stockItemRow struct {
	ID          uuid.UUID
	ParentID    uuid.UUID
	ProductType string
	Quantity    int64
}

// FindForUpdate loads the item's counter with SELECT ... FOR UPDATE
func (r *GormStockItemRepository) FindForUpdate(ctx context.Context, target ledger.TargetRef) (*catalog.StockItem, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	switch target.Kind() {
	case ledger.TargetProduct:
		query = query.Model(&models.ProductModel{}).
			Select("id, id AS parent_id, product_type, quantity")
	case ledger.TargetVariation:
		query = query.Model(&models.VariationModel{}).
			Select("id, product_id AS parent_id, quantity")
	case ledger.TargetAccessory:
		query = query.Model(&models.AccessoryModel{}).
			Select("id, product_id AS parent_id, quantity")
	}

	var row stockItemRow
	if err := query.Where("id = ?", target.ID()).Take(&row).Error; err != nil {
		return nil, translateError(err, target.Kind().String(), target.ID())
	}

	return &catalog.StockItem{
		Target:          target,
		ParentProductID: row.ParentID,
		ProductType:     catalog.ProductType(row.ProductType),
		Quantity:        row.Quantity,
	}, nil
}

// UpdateQuantity overwrites the item's counter
func (r *GormStockItemRepository) UpdateQuantity(ctx context.Context, target ledger.TargetRef, quantity int64) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if quantity < 0 {
		return shared.NewDomainError(shared.CodeInsufficientStock, "quantity cannot be negative")
	}

	var model any
	switch target.Kind() {
	case ledger.TargetProduct:
		model = &models.ProductModel{}
	case ledger.TargetVariation:
		model = &models.VariationModel{}
	case ledger.TargetAccessory:
		model = &models.AccessoryModel{}
	}

	result := r.db.WithContext(ctx).Model(model).
		Where("id = ?", target.ID()).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": shared.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error, target.Kind().String(), target.ID())
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(target.Kind().String(), target.ID())
	}
	return nil
}

// Ensure GormStockItemRepository implements StockItemRepository
var _ catalog.StockItemRepository = (*GormStockItemRepository)(nil)
